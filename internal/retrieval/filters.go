package retrieval

import "fmt"

// CompileFilters 将可选过滤条件编译为 SQL 谓词片段与绑定参数
//
// startIndex 为首个可用的占位符序号，返回值 next 为下一个空闲序号。
// 片段顺序固定（文档 ID、来源类型、起始时间、结束时间），保证可测试性。
// 租户隔离谓词不在此编译，由查询构建方作为固定首谓词强制加入。
func CompileFilters(f *Filters, startIndex int) (fragments []string, params []any, next int) {
	next = startIndex
	if f == nil {
		return nil, nil, next
	}

	if len(f.DocumentIDs) > 0 {
		fragments = append(fragments, fmt.Sprintf("d.id = ANY($%d::uuid[])", next))
		params = append(params, f.DocumentIDs)
		next++
	}

	if len(f.SourceTypes) > 0 {
		fragments = append(fragments, fmt.Sprintf("d.source_type = ANY($%d::text[])", next))
		params = append(params, f.SourceTypes)
		next++
	}

	if f.DateRange != nil && f.DateRange.From != nil {
		fragments = append(fragments, fmt.Sprintf("d.created_at >= $%d", next))
		params = append(params, *f.DateRange.From)
		next++
	}

	if f.DateRange != nil && f.DateRange.To != nil {
		fragments = append(fragments, fmt.Sprintf("d.created_at <= $%d", next))
		params = append(params, *f.DateRange.To)
		next++
	}

	return fragments, params, next
}

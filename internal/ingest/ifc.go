package ingest

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"bob/internal/ifc"
)

// 可检索的建筑构件实体类型（IFC STEP 大写形式 → 规范写法）
var ifcElementTypes = map[string]string{
	"IFCWALL":               "IfcWall",
	"IFCWALLSTANDARDCASE":   "IfcWallStandardCase",
	"IFCDOOR":               "IfcDoor",
	"IFCWINDOW":             "IfcWindow",
	"IFCSLAB":               "IfcSlab",
	"IFCBEAM":               "IfcBeam",
	"IFCCOLUMN":             "IfcColumn",
	"IFCSTAIR":              "IfcStair",
	"IFCSTAIRFLIGHT":        "IfcStairFlight",
	"IFCROOF":               "IfcRoof",
	"IFCRAILING":            "IfcRailing",
	"IFCCURTAINWALL":        "IfcCurtainWall",
	"IFCPLATE":              "IfcPlate",
	"IFCCOVERING":           "IfcCovering",
	"IFCFOOTING":            "IfcFooting",
	"IFCPILE":               "IfcPile",
	"IFCFLOWSEGMENT":        "IfcFlowSegment",
	"IFCFLOWFITTING":        "IfcFlowFitting",
	"IFCFLOWTERMINAL":       "IfcFlowTerminal",
	"IFCDISTRIBUTIONELEMENT": "IfcDistributionElement",
	"IFCFURNISHINGELEMENT":  "IfcFurnishingElement",
	"IFCBUILDINGELEMENTPROXY": "IfcBuildingElementProxy",
}

var (
	stepLineRe = regexp.MustCompile(`^#(\d+)\s*=\s*([A-Z0-9]+)\s*\((.*)\);?\s*$`)
	stepRefRe  = regexp.MustCompile(`#(\d+)`)
)

type stepEntity struct {
	id      string
	ifcType string
	args    []string
}

// IFCParseResult IFC 模型解析结果
type IFCParseResult struct {
	Elements []ifc.ElementInput
	// Text 供向量索引的构件描述文本
	Text string
}

// ParseIFC 解析 IFC STEP 文件，提取建筑构件及其楼层归属
func ParseIFC(content []byte) (*IFCParseResult, error) {
	entities := make(map[string]stepEntity)
	storeys := make(map[string]string)        // 实体 ID → 楼层名
	containment := make(map[string]string)    // 构件实体 ID → 楼层实体 ID
	var order []string

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := stepLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entity := stepEntity{id: m[1], ifcType: m[2], args: splitStepArgs(m[3])}

		switch {
		case entity.ifcType == "IFCBUILDINGSTOREY":
			storeys[entity.id] = stepString(entity.args, 2)
		case entity.ifcType == "IFCRELCONTAINEDINSPATIALSTRUCTURE":
			// 参数: GlobalId, OwnerHistory, Name, Description, RelatedElements, RelatingStructure
			if len(entity.args) >= 6 {
				structureRefs := stepRefRe.FindAllStringSubmatch(entity.args[5], 1)
				if len(structureRefs) == 1 {
					storeyID := structureRefs[0][1]
					for _, ref := range stepRefRe.FindAllStringSubmatch(entity.args[4], -1) {
						containment[ref[1]] = storeyID
					}
				}
			}
		default:
			if _, ok := ifcElementTypes[entity.ifcType]; ok {
				entities[entity.id] = entity
				order = append(order, entity.id)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取 IFC 文件失败: %w", err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("IFC 文件中没有可识别的建筑构件")
	}

	result := &IFCParseResult{}
	var lines []string
	for _, id := range order {
		entity := entities[id]
		element := ifc.ElementInput{
			GlobalID: stepString(entity.args, 0),
			IfcType:  ifcElementTypes[entity.ifcType],
			Name:     stepString(entity.args, 2),
		}
		if element.GlobalID == "" {
			continue
		}
		if storeyID, ok := containment[id]; ok {
			element.Storey = storeys[storeyID]
		}
		result.Elements = append(result.Elements, element)

		line := element.IfcType
		if element.Name != "" {
			line += " " + element.Name
		}
		if element.Storey != "" {
			line += "（" + element.Storey + "）"
		}
		lines = append(lines, line)
	}
	if len(result.Elements) == 0 {
		return nil, fmt.Errorf("IFC 文件中没有可识别的建筑构件")
	}

	result.Text = strings.Join(lines, "\n")
	return result, nil
}

// splitStepArgs 按顶层逗号拆分 STEP 参数，忽略引号与括号内的逗号
func splitStepArgs(raw string) []string {
	var args []string
	var buf strings.Builder
	depth := 0
	inQuote := false

	for _, r := range raw {
		switch {
		case r == '\'':
			inQuote = !inQuote
			buf.WriteRune(r)
		case inQuote:
			buf.WriteRune(r)
		case r == '(':
			depth++
			buf.WriteRune(r)
		case r == ')':
			depth--
			buf.WriteRune(r)
		case r == ',' && depth == 0:
			args = append(args, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	if buf.Len() > 0 {
		args = append(args, strings.TrimSpace(buf.String()))
	}
	return args
}

// stepString 取第 i 个参数的字符串值，非字符串（$、引用）返回空
func stepString(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	arg := args[i]
	if len(arg) >= 2 && arg[0] == '\'' && arg[len(arg)-1] == '\'' {
		return strings.ReplaceAll(arg[1:len(arg)-1], "''", "'")
	}
	return ""
}

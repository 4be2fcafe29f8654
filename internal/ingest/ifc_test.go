package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleIFC = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
ENDSEC;
DATA;
#1=IFCPROJECT('0xScRe4drECQ4DMSqUjd6d',#2,'Sample',$,$,$,$,(#9),#8);
#10=IFCBUILDINGSTOREY('2GgFVzXcr1fPCq7wz4CJxB',#2,'1F',$,$,#11,$,$,.ELEMENT.,0.);
#20=IFCWALL('2O2Fr$t4X7Zf8NOew3FLOH',#2,'\X2\59165899\X0\ W-01',$,$,#21,#22,'W01');
#30=IFCDOOR('0BTBFw6f90Nfh9rP1dlXre',#2,'FM-01',$,$,#31,#32,'D01',2100.,900.);
#40=IFCFLOWSEGMENT('1hOSvn6df7F8_7GcBWlR72',#2,'DN100',$,$,#41,#42,'P01');
#50=IFCRELCONTAINEDINSPATIALSTRUCTURE('3Sa3dTJGn0H8TQIGiuGQd5',#2,$,$,(#20,#30),#10);
ENDSEC;
END-ISO-10303-21;
`

func TestParseIFC(t *testing.T) {
	result, err := ParseIFC([]byte(sampleIFC))
	require.NoError(t, err)
	require.Len(t, result.Elements, 3)

	byGlobalID := map[string]int{}
	for i, e := range result.Elements {
		byGlobalID[e.GlobalID] = i
	}

	t.Run("构件类型与名称", func(t *testing.T) {
		wall := result.Elements[byGlobalID["2O2Fr$t4X7Zf8NOew3FLOH"]]
		require.Equal(t, "IfcWall", wall.IfcType)

		door := result.Elements[byGlobalID["0BTBFw6f90Nfh9rP1dlXre"]]
		require.Equal(t, "IfcDoor", door.IfcType)
		require.Equal(t, "FM-01", door.Name)
	})

	t.Run("空间包含关系映射楼层", func(t *testing.T) {
		door := result.Elements[byGlobalID["0BTBFw6f90Nfh9rP1dlXre"]]
		require.Equal(t, "1F", door.Storey)

		// 未包含在任何楼层的构件楼层为空
		pipe := result.Elements[byGlobalID["1hOSvn6df7F8_7GcBWlR72"]]
		require.Empty(t, pipe.Storey)
	})

	t.Run("索引文本覆盖全部构件", func(t *testing.T) {
		require.Contains(t, result.Text, "IfcDoor FM-01")
		require.Contains(t, result.Text, "IfcFlowSegment DN100")
	})
}

func TestParseIFCInvalid(t *testing.T) {
	t.Run("无构件", func(t *testing.T) {
		_, err := ParseIFC([]byte("ISO-10303-21;\nDATA;\nENDSEC;"))
		require.Error(t, err)
	})

	t.Run("空文件", func(t *testing.T) {
		_, err := ParseIFC([]byte(""))
		require.Error(t, err)
	})
}

func TestSplitStepArgs(t *testing.T) {
	args := splitStepArgs(`'Gid',#2,'Name, with comma',$,(#20,#30),#10`)
	require.Equal(t, []string{"'Gid'", "#2", "'Name, with comma'", "$", "(#20,#30)", "#10"}, args)
}

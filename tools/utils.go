package tools

import (
	"encoding/json"
)

const (
	SparseOutputFolder = "sparse"
	DenseOutputFolder  = "dense"
	PointCloudExt      = ".pcd"
	LabelsExt          = ".labels"
)

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

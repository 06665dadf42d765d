package docstore

import (
	"encoding/json"
	"io"
)

// Serializer 文档序列化
type Serializer interface {
	ToJSON(w io.Writer, doc any) error
	FromJSON(data []byte, doc any) error
}

// JSONSerializer 基于 encoding/json 的默认实现
type JSONSerializer struct{}

func (JSONSerializer) ToJSON(w io.Writer, doc any) error {
	return json.NewEncoder(w).Encode(doc)
}

func (JSONSerializer) FromJSON(data []byte, doc any) error {
	return json.Unmarshal(data, doc)
}

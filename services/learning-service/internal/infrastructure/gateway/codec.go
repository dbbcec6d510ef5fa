package gateway

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec carries course-service messages as JSON over gRPC, so the client
// does not depend on generated stubs.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

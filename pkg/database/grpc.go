package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnkitChadoker/micro-chat/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/encoding"
)

// JSONCodecName content-subtype of the JSON wire codec
const JSONCodecName = "json"

// jsonCodec lets grpc carry plain JSON bodies. The auth service speaks the
// same codec, so no generated protobuf code is committed here.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return JSONCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CreateGRPCClient create grpc client
func CreateGRPCClient(grpcIP string) (*grpc.ClientConn, error) {
	client, err := grpc.Dial(grpcIP, grpc.WithInsecure())
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("Failed to connect: %v", err))
	}

	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("connection did not become READY within 5 minutes")
		case <-ticker.C:
			state := client.GetState()
			logger.Log.Info(fmt.Sprintf("Connection[%s] state: %s", grpcIP, state))
			if state == connectivity.Ready {
				logger.Log.Info("Connection is READY")
				return client, nil
			}
		}
	}
}

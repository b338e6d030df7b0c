package grpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/autopeer-io/picar/internal/car"
)

// SnapshotToStruct encodes a snapshot with the same keys as its JSON form.
func SnapshotToStruct(s car.Snapshot) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"status":      s.Status.String(),
		"status_text": s.StatusText,
		"humidity":    s.Humidity,
		"temperature": s.Temperature,
	})
}

// StructToSnapshot decodes what SnapshotToStruct produced.
func StructToSnapshot(st *structpb.Struct) (car.Snapshot, error) {
	fields := st.GetFields()

	status, err := car.ParseStatus(fields["status"].GetStringValue())
	if err != nil {
		return car.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return car.Snapshot{
		Status:      status,
		StatusText:  fields["status_text"].GetStringValue(),
		Humidity:    fields["humidity"].GetNumberValue(),
		Temperature: fields["temperature"].GetNumberValue(),
	}, nil
}

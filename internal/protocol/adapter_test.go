package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEqual(t *testing.T) {
	assert.True(t, Int64Value(5).Equal(FloatValue(5)))
	assert.True(t, BoolValue(true).Equal(Int64Value(1)))
	assert.False(t, Int64Value(5).Equal(Int64Value(6)))
}

func TestValueScale(t *testing.T) {
	assert.Equal(t, FloatValue(10), Int64Value(5).Scale(2))
	assert.Equal(t, FloatValue(5), FloatValue(2.5).Scale(2))
	assert.Equal(t, BoolValue(true), BoolValue(true).Scale(2))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "5", Int64Value(5).String())
	assert.Equal(t, "true", BoolValue(true).String())
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindMock.Valid())
	assert.True(t, KindPJLink.Valid())
	assert.False(t, Kind("unknown").Valid())
}

type fakeInstance struct{}

func (fakeInstance) Execute(ctx context.Context, command string, params map[string]any) (Value, error) {
	return Value{}, ErrNotSupported
}
func (fakeInstance) Write(ctx context.Context, deviceID int64, value Value) error { return nil }
func (fakeInstance) Read(ctx context.Context, deviceID int64) (Value, error)       { return Value{}, nil }

type methodCallerInstance struct {
	fakeInstance
}

func (methodCallerInstance) CallMethod(ctx context.Context, name string, arguments map[string]any) (Value, error) {
	if name == "ping" {
		return Int64Value(1), nil
	}
	return Value{}, ErrNotSupported
}

func (methodCallerInstance) DescribeMethods() []Method {
	return []Method{{Name: "ping"}}
}

func TestCallMethodGracefulDegradation(t *testing.T) {
	_, err := CallMethod(context.Background(), fakeInstance{}, "ping", nil)
	assert.ErrorIs(t, err, ErrNotSupported)

	v, err := CallMethod(context.Background(), methodCallerInstance{}, "ping", nil)
	assert.NoError(t, err)
	assert.Equal(t, Int64Value(1), v)
}

func TestDescribeMethodsGracefulDegradation(t *testing.T) {
	assert.Nil(t, DescribeMethods(fakeInstance{}))
	assert.Len(t, DescribeMethods(methodCallerInstance{}), 1)
}

func TestProbeGracefulDegradation(t *testing.T) {
	assert.NoError(t, Probe(context.Background(), fakeInstance{}))
}

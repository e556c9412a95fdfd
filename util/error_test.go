package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckUnitRange(t *testing.T) {
	ass := assert.New(t)

	ass.NoError(CheckUnitRange(0, "power"))
	ass.NoError(CheckUnitRange(0.5, "power"))
	ass.NoError(CheckUnitRange(1, "power"))
	ass.Error(CheckUnitRange(-0.01, "power"))
	ass.Error(CheckUnitRange(1.01, "power"))
}

func TestErrorCode(t *testing.T) {
	ass := assert.New(t)

	err := NewUnknownLocationError("upper-intake")
	ass.Equal(EC_UnknownLocation, Code(err))
	ass.Contains(err.Error(), "upper-intake")

	ass.Equal(EC_Internal, Code(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	ass := assert.New(t)

	cause := errors.New("file missing")
	err := NewTransportError("could not read adc counts", cause)
	ass.ErrorIs(err, cause)
	ass.Contains(err.Error(), "file missing")
}

package pipelineerr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "decode", "ffmpeg failed", base)

	assert.ErrorIs(t, err, pipelineerr.ErrDecode)
	assert.ErrorIs(t, err, base)
	for _, fragment := range []string{"audio", "decode", "ffmpeg failed"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestWrapWithoutMarkerDefaultsToIO(t *testing.T) {
	err := pipelineerr.Wrap(nil, "", "", "", nil)
	assert.ErrorIs(t, err, pipelineerr.ErrIO)
	assert.Contains(t, err.Error(), "pipeline failure")
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, 0, pipelineerr.ExitCode(nil))
	assert.Equal(t, 2, pipelineerr.ExitCode(pipelineerr.Wrap(pipelineerr.ErrValidation, "cli", "args", "missing file", nil)))
	assert.Equal(t, 4, pipelineerr.ExitCode(pipelineerr.Wrap(pipelineerr.ErrDecode, "audio", "decode", "", nil)))
	assert.Equal(t, 1, pipelineerr.ExitCode(errors.New("unexpected")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, pipelineerr.HTTPStatus(pipelineerr.Wrap(pipelineerr.ErrDecode, "", "", "", nil)))
	assert.Equal(t, http.StatusInternalServerError, pipelineerr.HTTPStatus(pipelineerr.Wrap(pipelineerr.ErrIO, "", "", "", nil)))
}

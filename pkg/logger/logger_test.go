package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, Config{Env: "production", Level: "info", Service: "reco-api"})

	l.Named("stock").Info().Str("account_id", "acc-1").Msg("movimiento registrado")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reco-api", line["service"])
	assert.Equal(t, "stock", line["component"])
	assert.Equal(t, "acc-1", line["account_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_NivelFiltraEventos(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, Config{Level: "warn"})

	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("sí debe salir")
	assert.NotZero(t, buf.Len())
}

func TestNop_NoEscribe(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() { l.Error().Msg("descartado") })
}

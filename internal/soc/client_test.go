package soc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, zap.NewNop())
}

func TestFetch_SendsParamsAsJSONQueryValue(t *testing.T) {
	var gotParam string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotParam = r.URL.Query().Get("parametro")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Fetch(context.Background(), map[string]string{
		"empresa": "123", "codigo": "abc", "chave": "k", "tipoSaida": "json",
	})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(gotParam), &decoded))
	require.Equal(t, "123", decoded["empresa"])
	require.Equal(t, "json", decoded["tipoSaida"])
}

func TestFetch_Records(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"CODIGO":"1","NOME":"ANA"},{"CODIGO":"2"}]`))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	recs, ok := out.(Records)
	require.True(t, ok)
	require.Len(t, recs, 2)
	require.Equal(t, "ANA", recs[0].Str("NOME"))
}

func TestFetch_DecodesLatin1Body(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		// "João" in ISO 8859-1.
		_, _ = w.Write([]byte("[{\"NOME\":\"Jo\xe3o\"}]"))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	recs, ok := out.(Records)
	require.True(t, ok)
	require.Equal(t, "João", recs[0].Str("NOME"))
}

func TestFetch_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.IsType(t, Empty{}, out)
}

func TestFetch_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Error":"Chave invalida"}`))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	pe, ok := out.(ProviderError)
	require.True(t, ok)
	require.Equal(t, "Chave invalida", pe.Message)
}

func TestFetch_DecodeError_KeepsPrefix(t *testing.T) {
	body := "<html>" + strings.Repeat("x", 2000)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	de, ok := out.(DecodeError)
	require.True(t, ok)
	require.Len(t, de.BodyPrefix, 1000)
	require.True(t, strings.HasPrefix(de.BodyPrefix, "<html>"))
}

func TestFetch_ObjectWithoutErrorKeyIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weird":"payload"}`))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.IsType(t, DecodeError{}, out)
}

func TestFetch_TransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	out, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	te, ok := out.(TransportError)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, te.Status)
	require.Equal(t, "boom", te.Body)
}

func TestFetch_NetworkFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zap.NewNop())
	_, err := c.Fetch(context.Background(), nil)
	require.Error(t, err)
}

func TestRawRecordStr(t *testing.T) {
	r := RawRecord{"A": "x", "B": float64(2), "C": nil, "D": true}
	require.Equal(t, "x", r.Str("A"))
	require.Equal(t, "2", r.Str("B"))
	require.Equal(t, "", r.Str("C"))
	require.Equal(t, "true", r.Str("D"))
	require.Equal(t, "", r.Str("missing"))
}

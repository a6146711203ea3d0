package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/waybar-scripts/walletbar/pkg/httputil"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/ok":
				fmt.Fprintf(w, "%s|%s", r.Header.Get("User-Agent"), r.Header.Get("X-Test"))
			case "/busy":
				w.WriteHeader(http.StatusTooManyRequests)
			default:
				http.Error(w, "not found", http.StatusNotFound)
			}
		},
	))
	defer srv.Close()

	client := httputil.NewClient(time.Second, map[string]string{"User-Agent": "walletbar"})

	body, err := client.Get(context.Background(), srv.URL+"/ok", map[string]string{"X-Test": "1"})
	require.NoError(t, err)
	require.Equal(t, "walletbar|1", string(body))

	_, err = client.Get(context.Background(), srv.URL+"/busy", nil)
	require.Error(t, err)
	require.True(t, httputil.IsTransient(err))

	_, err = client.Get(context.Background(), srv.URL+"/missing", nil)
	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.Code)
	require.False(t, httputil.IsTransient(err))
}

func TestGetCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		},
	))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := httputil.NewClient(time.Second, nil)
	_, err := client.Get(ctx, srv.URL, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, httputil.IsTransient(err))
}

func TestGetUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := httputil.NewClient(time.Second, nil)
	_, err := client.Get(context.Background(), url, nil)
	require.Error(t, err)
	require.True(t, httputil.IsTransient(err))
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/excavator/excavator/internal/config"
)

// resolveAddr returns the control plane address to talk to: --addr wins,
// otherwise the address from the loaded config, otherwise the default.
func resolveAddr() string {
	if serverAddr != "" {
		return serverAddr
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.DefaultConfig().ControlPlane.ListenAddr
	}
	return cfg.ControlPlane.ListenAddr
}

// apiClient is a thin JSON-over-HTTP client for the control plane's
// /api/v1 surface.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		base: "http://" + resolveAddr() + "/api/v1",
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeAPIResponse(resp, out)
}

func (c *apiClient) post(path string, body interface{}, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}
	resp, err := c.http.Post(c.base+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeAPIResponse(resp, out)
}

func decodeAPIResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(data))
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// client is a thin wrapper over the probecached HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) instances() ([]string, error) {
	var body struct {
		Instances []string `json:"instances"`
	}
	if err := c.do(http.MethodGet, "/v1/instances", nil, &body); err != nil {
		return nil, err
	}
	return body.Instances, nil
}

func (c *client) stats(instance string) (string, error) {
	var raw json.RawMessage
	if err := c.do(http.MethodGet, c.instancePath(instance, "stats"), nil, &raw); err != nil {
		return "", err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw), nil
	}
	return pretty.String(), nil
}

func (c *client) member(instance, key string, sync bool) (bool, error) {
	path := c.instancePath(instance, "member") + "/" + url.PathEscape(key)
	if sync {
		path += "?sync=true"
	}
	var body struct {
		Member bool `json:"member"`
	}
	if err := c.do(http.MethodGet, path, nil, &body); err != nil {
		return false, err
	}
	return body.Member, nil
}

func (c *client) add(instance, key string) error {
	return c.do(http.MethodPut, c.instancePath(instance, "keys")+"/"+url.PathEscape(key), nil, nil)
}

func (c *client) addList(instance string, keys []string) error {
	return c.do(http.MethodPost, c.instancePath(instance, "keys"), keys, nil)
}

func (c *client) del(instance, key string) error {
	return c.do(http.MethodDelete, c.instancePath(instance, "keys")+"/"+url.PathEscape(key), nil, nil)
}

func (c *client) reinit(instance string, keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	return c.do(http.MethodPost, c.instancePath(instance, "reinit"), keys, nil)
}

func (c *client) instancePath(instance, op string) string {
	return "/v1/instances/" + url.PathEscape(instance) + "/" + op
}

func (c *client) do(method, path string, reqBody, respBody any) error {
	var reader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if respBody != nil {
		return json.Unmarshal(raw, respBody)
	}
	return nil
}

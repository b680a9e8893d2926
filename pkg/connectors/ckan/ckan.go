// Package ckan reads and writes dataset resources on a CKAN catalog.
package ckan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/admariner/wrangles/pkg/connectors/file"
	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/httpx"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/utils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

// Conn addresses one dataset.
type Conn struct {
	Host    string  `mapstructure:"host" validate:"required,url"`
	Dataset string  `mapstructure:"dataset" validate:"required"`
	APIKey  string  `mapstructure:"api_key"`
	Retries *uint64 `mapstructure:"retries"`
}

type readOptions struct {
	Conn        `mapstructure:",squash"`
	File        string `mapstructure:"file" validate:"required"`
	file.Format `mapstructure:",squash"`
}

type writeOptions struct {
	Conn        `mapstructure:",squash"`
	File        string   `mapstructure:"file" validate:"required"`
	Columns     []string `mapstructure:"columns"`
	file.Format `mapstructure:",squash"`
}

type transferOptions struct {
	Conn       `mapstructure:",squash"`
	File       []string `mapstructure:"file" validate:"required,min=1"`
	OutputFile []string `mapstructure:"output_file"`
}

// Tree is the `ckan` connector.
func Tree() registry.Map {
	return registry.Map{
		"read":     registry.Reader{Fn: Read},
		"write":    registry.Writer{Fn: Write},
		"upload":   registry.Map{"run": registry.Action{Fn: Upload}},
		"download": registry.Map{"run": registry.Action{Fn: Download}},
	}
}

type client struct {
	Conn
	http *httpx.Client
}

func newClient(c Conn) *client {
	return &client{Conn: c, http: httpx.New(60*time.Second, utils.Deref(c.Retries, 3))}
}

type resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type packageShow struct {
	Success bool `json:"success"`
	Result  struct {
		ID        string     `json:"id"`
		Resources []resource `json:"resources"`
	} `json:"result"`
}

func (c *client) header() http.Header {
	h := http.Header{}
	if c.APIKey != "" {
		h.Set("Authorization", c.APIKey)
	}
	return h
}

func (c *client) api(action string) string {
	return strings.TrimRight(c.Host, "/") + "/api/3/action/" + action
}

func denied(status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return w.Remote(status, "Access Denied: check the api_key has access to this dataset")
	}
	return nil
}

func (c *client) dataset(ctx context.Context) (*packageShow, error) {
	resp, err := c.http.Do(ctx, httpx.Request{
		URL:    c.api("package_show") + "?id=" + url.QueryEscape(c.Dataset),
		Header: c.header(),
	})
	if err != nil {
		return nil, err
	}
	if err := denied(resp.StatusCode); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, w.Remote(resp.StatusCode, "Unable to find dataset %s", c.Dataset)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, w.Remote(resp.StatusCode, "unexpected status %d from %s", resp.StatusCode, c.Host)
	}
	var ps packageShow
	if err := json.Unmarshal(resp.Body, &ps); err != nil {
		return nil, fmt.Errorf("error decoding package_show: %w", err)
	}
	return &ps, nil
}

func (c *client) find(ps *packageShow, name string) (resource, bool) {
	for _, r := range ps.Result.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return resource{}, false
}

// fetch downloads the resource called name.
func (c *client) fetch(ctx context.Context, name string) ([]byte, error) {
	ps, err := c.dataset(ctx)
	if err != nil {
		return nil, err
	}
	res, ok := c.find(ps, name)
	if !ok {
		return nil, w.Remote(http.StatusNotFound, "File not found: %s in dataset %s", name, c.Dataset)
	}
	resp, err := c.http.Do(ctx, httpx.Request{URL: res.URL, Header: c.header()})
	if err != nil {
		return nil, err
	}
	if err := denied(resp.StatusCode); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, w.Remote(resp.StatusCode, "File not found: %s (status %d)", name, resp.StatusCode)
	}
	return resp.Body, nil
}

// store uploads data as the resource called name, replacing it when it
// already exists.
func (c *client) store(ctx context.Context, name string, data []byte) error {
	ps, err := c.dataset(ctx)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	action := "resource_create"
	if res, ok := c.find(ps, name); ok {
		action = "resource_update"
		_ = mw.WriteField("id", res.ID)
	} else {
		_ = mw.WriteField("package_id", ps.Result.ID)
	}
	_ = mw.WriteField("name", name)
	part, err := mw.CreateFormFile("upload", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	h := c.header()
	h.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(ctx, httpx.Request{Method: http.MethodPost, URL: c.api(action), Header: h, Body: body.Bytes()})
	if err != nil {
		return err
	}
	if err := denied(resp.StatusCode); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return w.Remote(resp.StatusCode, "%s failed with status %d: %s", action, resp.StatusCode, string(resp.Body))
	}
	zerolog.Ctx(ctx).Debug().Str("dataset", c.Dataset).Str("file", name).Str("action", action).Msg("uploaded resource")
	return nil
}

// Read loads a dataset resource as a table.
func Read(ctx context.Context, p registry.Params) (*w.Frame, error) {
	var opts readOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	data, err := newClient(opts.Conn).fetch(ctx, opts.File)
	if err != nil {
		return nil, err
	}
	return file.Decode(opts.File, bytes.NewReader(data), opts.Format)
}

// Write stores the table as a dataset resource.
func Write(ctx context.Context, f *w.Frame, p registry.Params) error {
	var opts writeOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	out, err := file.Columns(f, opts.Columns)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := file.Encode(opts.File, &buf, out, opts.Format); err != nil {
		return err
	}
	return newClient(opts.Conn).store(ctx, opts.File, buf.Bytes())
}

func pairs(files, outputs []string, base func(string) string) ([]string, error) {
	if len(outputs) == 0 {
		outputs = make([]string, len(files))
		for i, f := range files {
			outputs[i] = base(f)
		}
	}
	if len(outputs) != len(files) {
		return nil, w.Configf("file and output_file must have the same number of entries")
	}
	return outputs, nil
}

// Upload sends local files to the dataset.
func Upload(ctx context.Context, p registry.Params) error {
	var opts transferOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	outputs, err := pairs(opts.File, opts.OutputFile, filepath.Base)
	if err != nil {
		return err
	}
	c := newClient(opts.Conn)
	for i, name := range opts.File {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", name, err)
		}
		if err := c.store(ctx, outputs[i], data); err != nil {
			return err
		}
	}
	logger.Info().Int("files", len(opts.File)).Str("dataset", opts.Dataset).Msg("uploaded files to ckan")
	return nil
}

// Download saves dataset resources to local files.
func Download(ctx context.Context, p registry.Params) error {
	var opts transferOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	outputs, err := pairs(opts.File, opts.OutputFile, func(s string) string { return s })
	if err != nil {
		return err
	}
	c := newClient(opts.Conn)
	for i, name := range opts.File {
		data, err := c.fetch(ctx, name)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(outputs[i]); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(outputs[i], data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

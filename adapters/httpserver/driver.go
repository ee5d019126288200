package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Args map[string]any

func (a Args) Get(names ...string) map[string]any {
	res := make(map[string]any)
	for _, name := range names {
		if v, ok := a[name]; ok {
			res[name] = v
		}
	}
	return res
}

// Nest expands dotted names, "author.firstName: Jane" becomes {"author": {"firstName": "Jane"}}.
func (a Args) Nest() map[string]any {
	res := make(map[string]any)
	for name, v := range a {
		parts := strings.Split(name, ".")
		m := res
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = v
	}
	return res
}

func ParseArgs(args ...string) Args {
	res := make(Args)
	for _, arg := range args {
		splited := strings.SplitN(arg, ":", 2)
		if len(splited) != 2 {
			panic("argument must be `name: value` pattern")
		}
		name := strings.Trim(splited[0], " ")
		value := strings.Trim(splited[1], " ")
		res[name] = value
	}
	return res
}

type Response struct {
	Status int
	Body   []byte
}

// Driver talks to a running server over HTTP.
type Driver struct {
	BaseURL string
	Client  *http.Client
}

func (d *Driver) CreateAPost(args ...string) (Response, error) {
	return d.sendJSON(http.MethodPost, "/posts", ParseArgs(args...).Nest())
}

func (d *Driver) GetPosts() (Response, error) {
	return d.Send(http.MethodGet, "/posts", "")
}

func (d *Driver) GetAPost(id string) (Response, error) {
	return d.Send(http.MethodGet, "/posts/"+id, "")
}

func (d *Driver) EditAPost(id string, args ...string) (Response, error) {
	return d.sendJSON(http.MethodPut, "/posts/"+id, ParseArgs(args...).Nest())
}

func (d *Driver) DeleteAPost(id string) (Response, error) {
	return d.Send(http.MethodDelete, "/posts/"+id, "")
}

func (d *Driver) Health() (Response, error) {
	return d.Send(http.MethodGet, "/health", "")
}

func (d *Driver) sendJSON(method, path string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}
	return d.Send(method, path, string(body))
}

// Send issues a request with a raw body, so callers can send malformed payloads too.
func (d *Driver) Send(method, path, body string) (Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, d.BaseURL+path, reader)
	if err != nil {
		return Response{}, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := d.Client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: res.StatusCode, Body: bytes.TrimSpace(data)}, nil
}

func (r Response) String() string {
	return fmt.Sprintf("%d %s", r.Status, r.Body)
}

package remote

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph/cache"
)

// Client consumes a remote.NewRouter server and satisfies
// syncrepair.Source, letting the sync/repair engine treat it exactly
// like a local graph.Store's read side.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a Client against baseURL (no trailing slash), using
// http.DefaultClient if httpClient is nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

func (c *Client) ResolveTagOrDigest(ref string) (digest.Digest, error) {
	resp, err := c.HTTP.Get(c.BaseURL + "/tags/" + url.PathEscape(ref))
	if err != nil {
		return "", forgeerr.StorageReadError("GET", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", forgeerr.UnknownReferenceError(ref)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote: resolving %q: status %d", ref, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return digest.Digest(body), nil
}

func (c *Client) ReadObject(d digest.Digest, _ cache.Policy) (forge.Object, error) {
	resp, err := c.HTTP.Get(c.BaseURL + "/objects/" + url.PathEscape(d.String()))
	if err != nil {
		return nil, forgeerr.StorageReadError("GET", d.String(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, forgeerr.UnknownObjectError(d.String())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: reading object %s: status %d", d, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return forge.Decode(body)
}

func (c *Client) HasPayload(d digest.Digest) (bool, error) {
	resp, err := c.HTTP.Head(c.BaseURL + "/payloads/" + url.PathEscape(d.String()))
	if err != nil {
		return false, forgeerr.StorageReadError("HEAD", d.String(), err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("remote: checking payload %s: status %d", d, resp.StatusCode)
	}
}

func (c *Client) OpenPayload(d digest.Digest) (io.ReadCloser, error) {
	resp, err := c.HTTP.Get(c.BaseURL + "/payloads/" + url.PathEscape(d.String()))
	if err != nil {
		return nil, forgeerr.StorageReadError("GET", d.String(), err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, forgeerr.UnknownObjectError(d.String())
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("remote: opening payload %s: status %d", d, resp.StatusCode)
	}
	return resp.Body, nil
}

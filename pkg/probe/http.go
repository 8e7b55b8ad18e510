package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
)

func probeHTTP(ctx context.Context, spec Spec) Result {
	if spec.HealthcheckPath == "" {
		return Result{Status: StatusDead, Err: fmt.Errorf("healthcheckPath required for %s", spec.Method)}
	}

	scheme := "http"
	if spec.Method == MethodHTTPS {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s:%d%s", scheme, spec.Host, spec.Port, spec.HealthcheckPath)

	method := spec.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	var body *strings.Reader
	if (method == http.MethodPost || method == http.MethodPut) && spec.Body != "" {
		body = strings.NewReader(spec.Body)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: scheme == "https" && !spec.SSLVerify},
		},
	}
	if !spec.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	return Result{StatusCode: &code}
}

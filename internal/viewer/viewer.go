// Package viewer talks to the TICS viewer HTTP API.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/ticsgate/internal/contract"
	"github.com/huangsam/ticsgate/internal/httpclient"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
)

// Axis names used in explorer URLs.
const (
	ClientDataItem = "ClientData"
	ProjectItem    = "Project"
	BranchItem     = "Branch"
)

const (
	qualityGatePath = "/api/public/v1/QualityGateStatus"
	measurePath     = "/api/public/v1/Measure"
	installPath     = "/api/v1/fapi/installtics"
)

// hiePrefix is the project/branch prefix of annotation paths.
var hiePrefix = regexp.MustCompile(`^HIE://[^/]+/[^/]+/`)

// Client reads quality gates, annotations and install information from the viewer.
type Client struct {
	http      *httpclient.Client
	baseURL   string
	viewerURL string
	log       *logging.Logger
}

var (
	_ contract.QualityGateFetcher = &Client{} // Compile-time check
	_ contract.Installer          = &Client{} // Compile-time check
)

// New creates a viewer client. baseURL is the viewer root, viewerURL the configuration URL.
func New(hc *httpclient.Client, baseURL, viewerURL string, log *logging.Logger) *Client {
	return &Client{
		http:      hc,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		viewerURL: viewerURL,
		log:       log,
	}
}

// QualityGateURL builds the QualityGateStatus request URL for the filter.
func QualityGateURL(baseURL string, f schema.GateFilter) string {
	var params []string
	if f.Project != "" {
		params = append(params, "project="+url.QueryEscape(f.Project))
	}
	if f.Branch != "" {
		params = append(params, "branch="+url.QueryEscape(f.Branch))
	}
	params = append(params, "fields=details,annotationsApiV1Links", "includeFields=blockingAfter")
	if f.Date > 0 {
		params = append(params, "date="+strconv.FormatInt(f.Date, 10))
	}
	if f.ClientData != "" {
		params = append(params, "cdt="+url.QueryEscape(f.ClientData))
	}
	return strings.TrimSuffix(baseURL, "/") + qualityGatePath + "?" + strings.Join(params, "&")
}

// qualityGateResponse detects absent fields, which must not read as a pass.
type qualityGateResponse struct {
	Passed                *bool          `json:"passed"`
	Message               string         `json:"message"`
	URL                   string         `json:"url"`
	Gates                 *[]schema.Gate `json:"gates"`
	AnnotationsAPIV1Links []schema.Link  `json:"annotationsApiV1Links"`
}

// QualityGate fetches the quality gate status for the filter.
func (c *Client) QualityGate(ctx context.Context, filter schema.GateFilter) (*schema.QualityGate, error) {
	u := QualityGateURL(c.baseURL, filter)
	c.log.Debugf("Requesting quality gate from %s", u)

	var resp qualityGateResponse
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Passed == nil {
		return nil, errors.New("quality gate response is missing the passed field")
	}
	if resp.Gates == nil {
		return nil, errors.New("quality gate response is missing the gates field")
	}

	qg := &schema.QualityGate{
		Passed:                *resp.Passed,
		Message:               resp.Message,
		URL:                   resp.URL,
		Gates:                 *resp.Gates,
		AnnotationsAPIV1Links: resp.AnnotationsAPIV1Links,
	}
	qg.Normalize()
	return qg, nil
}

// Annotations fetches the findings behind the given annotation links, in link order.
func (c *Client) Annotations(ctx context.Context, links []schema.Link) ([]schema.ViewerAnnotation, error) {
	var annotations []schema.ViewerAnnotation
	for _, link := range links {
		u := c.baseURL + "/" + strings.TrimPrefix(link.URL, "/")
		c.log.Debugf("Requesting annotations from %s", u)

		var resp struct {
			Data []schema.ViewerAnnotation `json:"data"`
		}
		if err := c.http.GetJSON(ctx, u, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch annotations: %w", err)
		}
		for _, a := range resp.Data {
			a.Path = hiePrefix.ReplaceAllString(a.FullPath, "")
			annotations = append(annotations, a)
		}
	}
	return annotations, nil
}

// LastRunDate returns the epoch seconds of the last QServer run of a project branch.
func (c *Client) LastRunDate(ctx context.Context, project, branch string) (int64, error) {
	nodes := "Project(" + project + ")"
	if branch != "" {
		nodes += ",Branch(" + branch + ")"
	}
	u := c.baseURL + measurePath + "?metrics=lastRunTime&nodes=" + url.QueryEscape(nodes)
	c.log.Debugf("Requesting last run date from %s", u)

	var resp struct {
		Data []struct {
			Value float64 `json:"value"`
		} `json:"data"`
	}
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("failed to fetch last run date: %w", err)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("no last run date found for %s", nodes)
	}
	// The viewer reports milliseconds; the quality gate filter takes seconds.
	return int64(resp.Data[0].Value / 1000), nil
}

// InstallURL resolves the bootstrap script URL for the platform.
func (c *Client) InstallURL(ctx context.Context, platform schema.Platform) (string, error) {
	u := c.baseURL + installPath + "?platform=" + string(platform) + "&url=" + url.QueryEscape(c.viewerURL)
	c.log.Debugf("Requesting install information from %s", u)

	var resp struct {
		Links struct {
			InstallTics string `json:"installTics"`
		} `json:"links"`
	}
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch install information: %w", err)
	}
	if resp.Links.InstallTics == "" {
		return "", errors.New("install information does not contain an installTics link")
	}
	return c.baseURL + "/" + strings.TrimPrefix(resp.Links.InstallTics, "/"), nil
}

// ItemFromURL extracts the value of an axis such as ClientData(...) from an explorer URL.
// It returns an empty string when the axis is absent.
func ItemFromURL(explorerURL, item string) string {
	re := regexp.MustCompile(regexp.QuoteMeta(item) + `\((.*?)\)`)
	m := re.FindStringSubmatch(explorerURL)
	if m == nil {
		return ""
	}
	if unescaped, err := url.PathUnescape(m[1]); err == nil {
		return unescaped
	}
	return m[1]
}

package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"AstroCarto/internal/domain/models"
	xhttp "AstroCarto/pkg/http"
)

// RemoteProvider queries an external ephemeris service over HTTP. Used
// when the deployment has a high-precision ephemeris daemon available;
// the builtin analytic provider is the fallback.
type RemoteProvider struct {
	baseURL string
	client  *xhttp.Client
}

// NewRemoteProvider builds a provider against the given base URL.
func NewRemoteProvider(baseURL string, timeout time.Duration) *RemoteProvider {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RemoteProvider{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type remotePositionRequest struct {
	Body string  `json:"body"`
	JD   float64 `json:"jd"`
}

type remotePositionResponse struct {
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	Declination    float64 `json:"declination"`
	RightAscension float64 `json:"right_ascension"`
	Distance       float64 `json:"distance"`
	Speed          float64 `json:"speed"`
}

// GetPosition implements service.PositionProvider.
func (p *RemoteProvider) GetPosition(ctx context.Context, body models.Body, jd float64) (models.BodyPosition, error) {
	if p.client == nil || p.baseURL == "" {
		return models.BodyPosition{}, fmt.Errorf("ephemeris: remote provider not configured")
	}

	var resp remotePositionResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.baseURL + "/position",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: remotePositionRequest{Body: string(body), JD: jd},
	}, &resp)
	if err != nil {
		return models.BodyPosition{}, fmt.Errorf("ephemeris: remote position %s: %w", body, err)
	}

	pos := models.BodyPosition{
		Body:           body,
		EclipticLon:    resp.Longitude,
		EclipticLat:    resp.Latitude,
		Declination:    resp.Declination,
		RightAscension: resp.RightAscension,
		DistanceAU:     resp.Distance,
		LonSpeed:       resp.Speed,
	}
	if invalid(pos) {
		return models.BodyPosition{}, fmt.Errorf("ephemeris: remote position %s: non-finite value in response", body)
	}
	return pos, nil
}

// invalid rejects NaN/Inf fields from a collaborator before they can
// poison a computation.
func invalid(p models.BodyPosition) bool {
	for _, v := range []float64{p.EclipticLon, p.EclipticLat, p.Declination, p.RightAscension, p.DistanceAU, p.LonSpeed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

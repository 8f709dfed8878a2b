package marketplace

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/amws/backend/internal/domain/amws"
)

// FeedGateway implements amws.FeedGateway against the MWS Feeds API
type FeedGateway struct {
	client *Client
}

// NewFeedGateway creates a feed gateway on the shared client
func NewFeedGateway(client *Client) *FeedGateway {
	return &FeedGateway{client: client}
}

// SubmitFeed submits feed content of the given type and returns the
// submission ID
func (g *FeedGateway) SubmitFeed(ctx context.Context, store *amws.Store, feedType string, content []byte) (string, error) {
	digest := md5.Sum(content)
	params := map[string]string{
		"FeedType":   feedType,
		"ContentMD5": base64.StdEncoding.EncodeToString(digest[:]),
	}

	body, err := g.client.call(ctx, store, feedsPath, feedsVersion, "SubmitFeed", params, content)
	if err != nil {
		return "", err
	}

	var resp submitFeedResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding SubmitFeed response: %v",
			amws.ErrGatewayInvalidResponse, err)
	}
	if resp.Result.Info.FeedSubmissionID == "" {
		return "", fmt.Errorf("%w: SubmitFeed response carries no submission ID",
			amws.ErrGatewayInvalidResponse)
	}

	return resp.Result.Info.FeedSubmissionID, nil
}

// FetchStatuses returns the current processing status of the given
// submissions
func (g *FeedGateway) FetchStatuses(ctx context.Context, store *amws.Store, submissionIDs []string) ([]amws.FeedStatus, error) {
	params := make(map[string]string, len(submissionIDs))
	for i, id := range submissionIDs {
		params[fmt.Sprintf("FeedSubmissionIdList.Id.%d", i+1)] = id
	}

	body, err := g.client.call(ctx, store, feedsPath, feedsVersion, "GetFeedSubmissionList", params, nil)
	if err != nil {
		return nil, err
	}

	var resp feedSubmissionListResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding GetFeedSubmissionList response: %v",
			amws.ErrGatewayInvalidResponse, err)
	}

	statuses := make([]amws.FeedStatus, 0, len(resp.Result.Infos))
	for _, info := range resp.Result.Infos {
		statuses = append(statuses, amws.FeedStatus{
			SubmissionID:     info.FeedSubmissionID,
			ProcessingStatus: amws.FeedProcessingStatus(info.FeedProcessingStatus),
		})
	}
	return statuses, nil
}

// FetchResult returns the processing report for a completed
// submission
func (g *FeedGateway) FetchResult(ctx context.Context, store *amws.Store, submissionID string) ([]byte, error) {
	params := map[string]string{
		"FeedSubmissionId": submissionID,
	}
	return g.client.call(ctx, store, feedsPath, feedsVersion, "GetFeedSubmissionResult", params, nil)
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type submitFeedResponse struct {
	XMLName xml.Name         `xml:"SubmitFeedResponse"`
	Result  submitFeedResult `xml:"SubmitFeedResult"`
}

type submitFeedResult struct {
	Info feedSubmissionInfo `xml:"FeedSubmissionInfo"`
}

type feedSubmissionListResponse struct {
	XMLName xml.Name                 `xml:"GetFeedSubmissionListResponse"`
	Result  feedSubmissionListResult `xml:"GetFeedSubmissionListResult"`
}

type feedSubmissionListResult struct {
	Infos []feedSubmissionInfo `xml:"FeedSubmissionInfo"`
}

type feedSubmissionInfo struct {
	FeedSubmissionID     string `xml:"FeedSubmissionId"`
	FeedType             string `xml:"FeedType"`
	FeedProcessingStatus string `xml:"FeedProcessingStatus"`
	SubmittedDate        string `xml:"SubmittedDate"`
}

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/secret"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/go-resty/resty/v2"
)

const (
	clientAPI = "/_matrix/client/v3"
	mediaAPI  = "/_matrix/client/v1/media"

	loginTypePassword = "m.login.password"
	identifierUser    = "m.id.user"
)

type matrixClient struct {
	client     *utils.HTTPClient
	homeserver string
	cfg        config.ClientAdapter
	txnIDs     *utils.UUIDGenerator

	mu       sync.RWMutex
	token    models.AccessToken
	userID   string
	deviceID string

	logger *logger.Logger
}

// NewMatrixClient constructs the HTTP implementation of [ProtocolClient]
// for one homeserver. A homeserver without a scheme is assumed to be https.
//
// Returns an error if homeserver is empty or cannot be parsed as a URL.
func NewMatrixClient(homeserver string, cfg config.ClientAdapter, log *logger.Logger) (ProtocolClient, error) {
	baseURL, err := normalizeHomeserver(homeserver)
	if err != nil {
		return nil, fmt.Errorf("invalid homeserver: %w", err)
	}

	return &matrixClient{
		client:     utils.NewHTTPClient(baseURL),
		homeserver: baseURL,
		cfg:        cfg,
		txnIDs:     utils.NewUUIDGenerator(),
		logger:     log,
	}, nil
}

// NewFactory returns a [Factory] producing HTTP clients that share cfg.
func NewFactory(cfg config.ClientAdapter, log *logger.Logger) Factory {
	return func(homeserver string) (ProtocolClient, error) {
		return NewMatrixClient(homeserver, cfg, log)
	}
}

func normalizeHomeserver(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Login implements [ProtocolClient]. It posts a password login and keeps the
// issued token. The request body holding the password lives in a locked
// buffer for the duration of the call; the caller's slice is zeroed first.
func (m *matrixClient) Login(ctx context.Context, creds models.Credentials) (models.SessionHandle, error) {
	if len(creds.Password) == 0 {
		return models.SessionHandle{}, fmt.Errorf("%w: empty password", ErrAuth)
	}

	body, err := loginBody(loginRequest{
		Type:                     loginTypePassword,
		Identifier:               loginIdentifier{Type: identifierUser, User: creds.Username},
		InitialDeviceDisplayName: m.cfg.DeviceName,
	}, creds.Password)
	secret.Zero(creds.Password)
	if err != nil {
		m.log(ctx).Err(err).Str("func", "matrixClient.Login").Msg("failed to prepare login request")
		return models.SessionHandle{}, fmt.Errorf("prepare login request: %w", err)
	}
	defer body.Close()

	var result loginResponse
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	var resp *resty.Response
	err = body.Use(func(b []byte) error {
		var reqErr error
		resp, reqErr = m.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(bytes.NewReader(b)).
			SetResult(&result).
			Post(clientAPI + "/login")
		return reqErr
	})
	if err != nil {
		return models.SessionHandle{}, transportError("login request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		if !errors.Is(err, ErrAuth) && resp.StatusCode() < 500 {
			return models.SessionHandle{}, fmt.Errorf("%w: %w", ErrAuth, err)
		}
		return models.SessionHandle{}, err
	}
	if result.AccessToken == "" || result.UserID == "" {
		return models.SessionHandle{}, fmt.Errorf("%w: login response without token", ErrAuth)
	}

	handle := models.SessionHandle{
		UserID:      result.UserID,
		DeviceID:    result.DeviceID,
		AccessToken: models.AccessToken(result.AccessToken),
	}
	m.setSession(handle)

	return handle, nil
}

// Restore implements [ProtocolClient]. It installs the token and calls
// whoami; a token that belongs to another user is rejected as well.
func (m *matrixClient) Restore(ctx context.Context, handle models.SessionHandle) error {
	if handle.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrAuth)
	}
	m.setSession(handle)

	var result whoAmIResponse
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetResult(&result).
		Get(clientAPI + "/account/whoami")
	if err != nil {
		return transportError("whoami request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		if errors.Is(err, ErrAuth) {
			m.setSession(models.SessionHandle{})
		}
		return err
	}
	if result.UserID != handle.UserID {
		m.log(ctx).Warn().Str("func", "matrixClient.Restore").Str("expected", handle.UserID).Str("got", result.UserID).Msg("token belongs to another user")
		m.setSession(models.SessionHandle{})
		return fmt.Errorf("%w: token belongs to %s", ErrAuth, result.UserID)
	}

	return nil
}

// Logout implements [ProtocolClient]. The local token is forgotten even when
// the server call fails.
func (m *matrixClient) Logout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(struct{}{}).
		Post(clientAPI + "/logout")
	m.setSession(models.SessionHandle{})
	if err != nil {
		return transportError("logout request", err)
	}

	return mapHTTPError(resp)
}

// Sync implements [ProtocolClient]. The request deadline is the long-poll
// timeout plus the ordinary request timeout.
func (m *matrixClient) Sync(ctx context.Context, cursor string, timeout time.Duration) (models.SyncBatch, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+m.cfg.RequestTimeout)
	defer cancel()

	req := m.authedRequest(ctx).
		SetQueryParam("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	if cursor != "" {
		req.SetQueryParam("since", cursor)
	}

	resp, err := req.Get(clientAPI + "/sync")
	if err != nil {
		return models.SyncBatch{}, transportError("sync request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncBatch{}, err
	}

	var body syncResponse
	if err = json.Unmarshal(resp.Body(), &body); err != nil {
		m.log(ctx).Err(err).Str("func", "matrixClient.Sync").Str("homeserver", m.homeserver).Msg("malformed sync response")
		return models.SyncBatch{}, fmt.Errorf("%w: decode sync response: %w", ErrNetwork, err)
	}

	return mapSync(m.currentUser(), body), nil
}

// Backfill implements [ProtocolClient]. The server returns newest first;
// the page is reversed into chronological order.
func (m *matrixClient) Backfill(ctx context.Context, roomID, from string, limit int) (models.BackfillPage, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	req := m.authedRequest(ctx).
		SetPathParam("roomId", roomID).
		SetQueryParam("dir", "b").
		SetQueryParam("limit", strconv.Itoa(limit))
	if from != "" {
		req.SetQueryParam("from", from)
	}

	resp, err := req.Get(clientAPI + "/rooms/{roomId}/messages")
	if err != nil {
		return models.BackfillPage{}, transportError("messages request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.BackfillPage{}, err
	}

	var body messagesResponse
	if err = json.Unmarshal(resp.Body(), &body); err != nil {
		return models.BackfillPage{}, fmt.Errorf("%w: decode messages response: %w", ErrNetwork, err)
	}

	accountID := m.currentUser()
	page := models.BackfillPage{
		NextCursor: body.End,
		Exhausted:  body.End == "" || len(body.Chunk) == 0,
	}
	for _, ev := range slices.Backward(body.Chunk) {
		if raw, ok := mapTimelineEvent(accountID, roomID, ev); ok {
			page.Events = append(page.Events, raw)
		}
	}

	return page, nil
}

// Send implements [ProtocolClient]. Every call uses a fresh transaction id.
func (m *matrixClient) Send(ctx context.Context, roomID string, msg models.Outgoing) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	req := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("roomId", roomID).
		SetPathParam("txnId", m.txnIDs.Generate())

	var path string
	switch msg.Kind {
	case models.OutgoingRedaction:
		req.SetPathParam("eventId", msg.TargetID).SetBody(struct{}{})
		path = clientAPI + "/rooms/{roomId}/redact/{eventId}/{txnId}"
	case models.OutgoingReaction:
		req.SetPathParam("eventType", eventTypeReaction).SetBody(outgoingContent{
			RelatesTo: &relatesTo{RelType: relTypeAnnotation, EventID: msg.TargetID, Key: msg.Key},
		})
		path = clientAPI + "/rooms/{roomId}/send/{eventType}/{txnId}"
	default:
		content, err := messageContent(msg)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrSend, err)
		}
		req.SetPathParam("eventType", eventTypeMessage).SetBody(content)
		path = clientAPI + "/rooms/{roomId}/send/{eventType}/{txnId}"
	}

	var result sendEventResponse
	resp, err := req.SetResult(&result).Put(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSend, transportError("send request", err))
	}
	if err = mapHTTPError(resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSend, err)
	}

	return result.EventID, nil
}

func messageContent(msg models.Outgoing) (outgoingContent, error) {
	switch msg.Kind {
	case models.OutgoingText:
		return outgoingContent{MsgType: "m.text", Body: msg.Body}, nil
	case models.OutgoingEmote:
		return outgoingContent{MsgType: "m.emote", Body: msg.Body}, nil
	case models.OutgoingNotice:
		return outgoingContent{MsgType: "m.notice", Body: msg.Body}, nil
	case models.OutgoingReply:
		return outgoingContent{
			MsgType:   "m.text",
			Body:      msg.Body,
			RelatesTo: &relatesTo{InReplyTo: &inReplyTo{EventID: msg.TargetID}},
		}, nil
	case models.OutgoingEdit:
		return outgoingContent{
			MsgType:    "m.text",
			Body:       "* " + msg.Body,
			NewContent: &newContent{MsgType: "m.text", Body: msg.Body},
			RelatesTo:  &relatesTo{RelType: relTypeReplace, EventID: msg.TargetID},
		}, nil
	case models.OutgoingAttachment:
		if msg.Media == nil {
			return outgoingContent{}, fmt.Errorf("attachment without content uri")
		}
		return outgoingContent{
			MsgType:  attachmentMsgType(msg.Media.MimeType),
			Body:     msg.Body,
			FileName: msg.Body,
			URL:      msg.Media.URI,
			Info:     &mediaInfo{MimeType: msg.Media.MimeType, Size: msg.Media.Size},
		}, nil
	default:
		return outgoingContent{}, fmt.Errorf("unknown outgoing kind %d", msg.Kind)
	}
}

// SendReadReceipt implements [ProtocolClient].
func (m *matrixClient) SendReadReceipt(ctx context.Context, roomID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParams(map[string]string{"roomId": roomID, "eventId": eventID}).
		SetBody(struct{}{}).
		Post(clientAPI + "/rooms/{roomId}/receipt/m.read/{eventId}")
	if err != nil {
		return transportError("receipt request", err)
	}

	return mapHTTPError(resp)
}

// FetchRecoveryBackup implements [ProtocolClient]. Key backup needs a
// crypto engine this client does not carry.
func (m *matrixClient) FetchRecoveryBackup(_ context.Context, _ []byte) error {
	return fmt.Errorf("%w: %w: recovery key backup", ErrVerification, ErrUnsupported)
}

// StartSASVerification implements [ProtocolClient].
func (m *matrixClient) StartSASVerification(_ context.Context, _ string) (SASSession, error) {
	return nil, fmt.Errorf("%w: %w: emoji verification", ErrVerification, ErrUnsupported)
}

// FetchRoomKey implements [ProtocolClient].
func (m *matrixClient) FetchRoomKey(_ context.Context, _, _ string) (models.RawEvent, error) {
	return models.RawEvent{}, fmt.Errorf("%w: %w: room key backup", ErrDecryption, ErrUnsupported)
}

// DownloadMedia implements [ProtocolClient]. The body is streamed and cut at
// maxBytes+1 so an oversize download never lands in memory whole.
func (m *matrixClient) DownloadMedia(ctx context.Context, ref models.MediaRef, maxBytes int64) ([]byte, string, error) {
	server, mediaID, err := parseMXC(ref.URI)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMedia, err)
	}
	if maxBytes > 0 && ref.Size > maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes exceeds budget of %d", ErrMedia, ref.Size, maxBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetDoNotParseResponse(true).
		SetPathParams(map[string]string{"serverName": server, "mediaId": mediaID}).
		Get(mediaAPI + "/download/{serverName}/{mediaId}")
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMedia, transportError("media request", err))
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 300 {
		data, _ := io.ReadAll(io.LimitReader(body, 4096))
		matrixErr := &MatrixError{StatusCode: resp.StatusCode(), Code: ErrCodeUnknown, Message: strings.TrimSpace(string(data))}
		_ = json.Unmarshal(data, matrixErr)
		return nil, "", fmt.Errorf("%w: %w", ErrMedia, matrixErr)
	}

	reader := io.Reader(body)
	if maxBytes > 0 {
		reader = io.LimitReader(body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMedia, transportError("read media body", err))
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: content exceeds budget of %d bytes", ErrMedia, maxBytes)
	}

	mime := resp.Header().Get("Content-Type")
	if mime == "" {
		mime = ref.MimeType
	}
	return data, mime, nil
}

// parseMXC splits "mxc://server/mediaId".
func parseMXC(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(uri, "mxc://")
	if !ok {
		return "", "", fmt.Errorf("not a content uri: %q", uri)
	}
	server, mediaID, ok := strings.Cut(rest, "/")
	if !ok || server == "" || mediaID == "" || strings.Contains(mediaID, "/") {
		return "", "", fmt.Errorf("malformed content uri: %q", uri)
	}
	return server, mediaID, nil
}

// CloseIdleConnections implements [ProtocolClient].
func (m *matrixClient) CloseIdleConnections() {
	m.client.CloseIdleConnections()
}

func (m *matrixClient) setSession(handle models.SessionHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = handle.AccessToken
	m.userID = handle.UserID
	m.deviceID = handle.DeviceID
}

// log tags entries with the account the request runs for.
func (m *matrixClient) log(ctx context.Context) *logger.Logger {
	if accountID, ok := utils.GetAccountIDFromContext(ctx); ok {
		return m.logger.ForAccount(accountID)
	}
	return m.logger
}

func (m *matrixClient) currentUser() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.userID
}

func (m *matrixClient) authedRequest(ctx context.Context) *resty.Request {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	req := m.client.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token.Reveal())
	}
	return req
}

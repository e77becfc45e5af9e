package printer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Signer signs a QZ Tray call payload. Production deployments sign with
// the private key matching the certificate registered in QZ Tray.
type Signer func(payload []byte) (string, error)

// QZClient talks to a local QZ Tray bridge over WebSocket. QZ expects a
// certificate announcement, then signed RPC-style calls.
type QZClient struct {
	bridgeURL   string
	certificate string
	sign        Signer
}

// NewQZClient creates a client for the QZ Tray bridge at bridgeURL
// (typically ws://localhost:8182).
func NewQZClient(bridgeURL, certificate string, sign Signer) *QZClient {
	return &QZClient{bridgeURL: bridgeURL, certificate: certificate, sign: sign}
}

// NewHMACSigner signs call payloads with HMAC-SHA256 under the shared
// key configured in the bridge.
func NewHMACSigner(key string) Signer {
	return func(payload []byte) (string, error) {
		mac := hmac.New(sha256.New, []byte(key))
		mac.Write(payload)
		return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
	}
}

type qzCall struct {
	Call      string         `json:"call"`
	Params    map[string]any `json:"params,omitempty"`
	Signature string         `json:"signature,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// SubmitRaw performs the certificate handshake and submits a raw ESC/POS
// job to the named printer.
func (c *QZClient) SubmitRaw(ctx context.Context, printerName string, raw []byte) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.bridgeURL, nil)
	if err != nil {
		return fmt.Errorf("dial qz bridge: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		conn.SetReadDeadline(deadline)
	}

	// Handshake: announce the certificate before any signed call.
	if err := conn.WriteJSON(qzCall{
		Call:      "certificate",
		Params:    map[string]any{"certificate": c.certificate},
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		return fmt.Errorf("send certificate: %w", err)
	}
	if err := readQZAck(conn); err != nil {
		return fmt.Errorf("certificate rejected: %w", err)
	}

	call := qzCall{
		Call: "print",
		Params: map[string]any{
			"printer": printerName,
			"data": []map[string]any{{
				"type":   "raw",
				"format": "base64",
				"data":   base64.StdEncoding.EncodeToString(raw),
			}},
		},
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(call.Params)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}
	if c.sign != nil {
		sig, err := c.sign(payload)
		if err != nil {
			return fmt.Errorf("sign call: %w", err)
		}
		call.Signature = sig
	}

	if err := conn.WriteJSON(call); err != nil {
		return fmt.Errorf("send print call: %w", err)
	}
	if err := readQZAck(conn); err != nil {
		return fmt.Errorf("print call failed: %w", err)
	}
	return nil
}

type qzResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

func readQZAck(conn *websocket.Conn) error {
	var resp qzResponse
	if err := conn.ReadJSON(&resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("qz error: %s", resp.Error)
	}
	return nil
}

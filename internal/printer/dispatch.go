package printer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/komanda-kiosk/api/internal/receipt"
	"github.com/komanda-kiosk/api/internal/secrets"
	"github.com/komanda-kiosk/api/internal/store"
)

// Store defines the DB methods the dispatcher needs.
// Satisfied by *store.Queries.
type Store interface {
	ListPrintConfigs(ctx context.Context, restaurantID uuid.UUID) ([]store.PrintConfig, error)
	CreateAuditLog(ctx context.Context, arg store.CreateAuditLogParams) (store.SecurityAuditLog, error)
}

// Result is the outcome for a single configured printer.
type Result struct {
	ConfigID  uuid.UUID `json:"config_id"`
	Name      string    `json:"name"`
	Transport string    `json:"transport"`
	Error     string    `json:"error,omitempty"`
}

// OK reports whether the job reached the printer.
func (r Result) OK() bool { return r.Error == "" }

// Summary aggregates per-printer results. One printer failing never
// marks the others failed.
type Summary struct {
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Total      int      `json:"total"`
	Results    []Result `json:"results"`
}

// Dispatcher fans a composed receipt out to every active printer
// configured for a restaurant.
type Dispatcher struct {
	store     Store
	box       *secrets.Box
	printNode *PrintNodeClient
	qzDial    func(bridgeURL, signingKey string) *QZClient
}

// NewDispatcher creates a Dispatcher. qzDial lets tests substitute the
// QZ bridge client; nil uses the default HMAC-signed client.
func NewDispatcher(st Store, box *secrets.Box, printNode *PrintNodeClient, qzDial func(bridgeURL, signingKey string) *QZClient) *Dispatcher {
	if qzDial == nil {
		qzDial = func(bridgeURL, signingKey string) *QZClient {
			return NewQZClient(bridgeURL, "", NewHMACSigner(signingKey))
		}
	}
	return &Dispatcher{store: st, box: box, printNode: printNode, qzDial: qzDial}
}

// Dispatch renders the document for each configured printer and submits
// it. BROWSER transports render on demand in the kiosk, so they count
// as successful without a submission here.
func (d *Dispatcher) Dispatch(ctx context.Context, restaurantID uuid.UUID, doc receipt.Document) Summary {
	configs, err := d.store.ListPrintConfigs(ctx, restaurantID)
	if err != nil {
		log.Printf("ERROR: list print configs: %v", err)
		return Summary{}
	}

	var sum Summary
	for _, cfg := range configs {
		res := Result{ConfigID: cfg.ID, Name: cfg.Name, Transport: cfg.Transport}
		if err := d.dispatchOne(ctx, cfg, doc); err != nil {
			res.Error = err.Error()
			sum.Failed++
		} else {
			sum.Successful++
		}
		sum.Total++
		sum.Results = append(sum.Results, res)
	}
	return sum
}

func (d *Dispatcher) dispatchOne(ctx context.Context, cfg store.PrintConfig, doc receipt.Document) error {
	switch cfg.Transport {
	case enum.PrintTransportBrowser:
		return nil

	case enum.PrintTransportPrintNode:
		if !cfg.PrinterID.Valid || cfg.PrinterID.String == "" {
			return fmt.Errorf("printer %s has no printer id", cfg.Name)
		}
		apiKey, err := d.openKey(ctx, cfg)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("Order %s", doc.Meta.OrderNumber)
		_, err = d.printNode.SubmitRaw(ctx, apiKey, cfg.PrinterID.String, title, receipt.RenderESCPOS(doc))
		return err

	case enum.PrintTransportQZTray:
		if !cfg.PrinterID.Valid || cfg.PrinterID.String == "" {
			return fmt.Errorf("printer %s has no printer name", cfg.Name)
		}
		if !cfg.EndpointUrl.Valid || cfg.EndpointUrl.String == "" {
			return fmt.Errorf("printer %s has no bridge url", cfg.Name)
		}
		signingKey, err := d.openKey(ctx, cfg)
		if err != nil {
			return err
		}
		return d.qzDial(cfg.EndpointUrl.String, signingKey).SubmitRaw(ctx, cfg.PrinterID.String, receipt.RenderESCPOS(doc))

	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// openKey decrypts the config's sealed credential and records the access
// in the security audit log.
func (d *Dispatcher) openKey(ctx context.Context, cfg store.PrintConfig) (string, error) {
	if !cfg.ApiKeyEncrypted.Valid || cfg.ApiKeyEncrypted.String == "" {
		return "", fmt.Errorf("printer %s has no credential", cfg.Name)
	}
	plain, err := d.box.Open(cfg.ApiKeyEncrypted.String)
	if err != nil {
		return "", fmt.Errorf("decrypt credential for %s: %w", cfg.Name, err)
	}
	_, err = d.store.CreateAuditLog(ctx, store.CreateAuditLogParams{
		RestaurantID: cfg.RestaurantID,
		ActorID:      pgtype.UUID{},
		Action:       "printer_key_access",
		Detail:       fmt.Sprintf("decrypted credential for printer %s", cfg.Name),
	})
	if err != nil {
		// Access already happened; losing the audit row is logged, not fatal.
		log.Printf("ERROR: audit log printer key access: %v", err)
	}
	return plain, nil
}

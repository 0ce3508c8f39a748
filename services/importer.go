package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"metahire/metrics"
	"metahire/models"
	"metahire/store"
	"metahire/utils"
)

const DefaultImportBatchSize = 10

// Importer bulk-creates leads from CSV. Each row holds a first name, a second
// name, a phone label and a phone number; the first line is a header.
type Importer struct {
	store         store.Store
	metrics       *metrics.Metrics
	log           logrus.FieldLogger
	batchSize     int
	defaultRegion string
}

func NewImporter(st store.Store, m *metrics.Metrics, log logrus.FieldLogger, batchSize int, defaultRegion string) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	return &Importer{store: st, metrics: m, log: log, batchSize: batchSize, defaultRegion: defaultRegion}
}

// ImportOptions places imported leads. Both fields are optional.
type ImportOptions struct {
	CampaignID string `json:"campaign_id"`
	AssignedTo string `json:"assigned_to"`
}

// ImportResult reports how far an import got. FailedBatch is the zero-based
// index of the batch that could not be written; batches before it stay.
type ImportResult struct {
	Rows        int    `json:"rows"`
	Imported    int    `json:"imported"`
	Skipped     int    `json:"skipped"`
	Batches     int    `json:"batches"`
	FailedBatch *int   `json:"failed_batch,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (im *Importer) Import(ctx context.Context, caller Caller, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if err := caller.requireSuperadmin(); err != nil {
		return nil, err
	}
	if opts.CampaignID != "" {
		if _, err := im.store.Campaigns().FindByID(ctx, opts.CampaignID); err != nil {
			return nil, fromStore("campaign", err)
		}
	}
	if opts.AssignedTo != "" {
		if _, err := im.store.Profiles().FindByID(ctx, opts.AssignedTo); err != nil {
			return nil, fromStore("staff member", err)
		}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, Validation("invalid CSV file", err)
	}

	result := &ImportResult{}
	var leads []*models.Lead
	for i, record := range records {
		if i == 0 {
			continue
		}
		result.Rows++
		lead := im.leadFromRecord(record, opts)
		if lead == nil {
			result.Skipped++
			continue
		}
		leads = append(leads, lead)
	}

	log := im.log.WithFields(logrus.Fields{
		"campaign_id": opts.CampaignID,
		"rows":        result.Rows,
		"by":          caller.ProfileID(),
	})

	for start, batch := 0, 0; start < len(leads); start, batch = start+im.batchSize, batch+1 {
		end := start + im.batchSize
		if end > len(leads) {
			end = len(leads)
		}
		chunk := leads[start:end]
		err := im.store.Atomic(ctx, func(tx store.Store) error {
			return tx.Leads().Insert(ctx, chunk...)
		})
		if err != nil {
			failed := batch
			result.FailedBatch = &failed
			result.Error = err.Error()
			im.metrics.RecordImport(result.Imported, true)
			log.WithFields(logrus.Fields{"batch": batch, "imported": result.Imported}).WithError(err).Error("lead import stopped")
			return result, Storage(fmt.Sprintf("import stopped at batch %d", batch), err)
		}
		result.Imported += len(chunk)
		result.Batches++
	}

	im.metrics.RecordImport(result.Imported, false)
	log.WithField("imported", result.Imported).Info("lead import finished")
	return result, nil
}

// leadFromRecord maps one CSV row; rows without a first name are skipped.
func (im *Importer) leadFromRecord(record []string, opts ImportOptions) *models.Lead {
	col := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	first := col(0)
	if first == "" {
		return nil
	}
	lead := &models.Lead{
		FirstName:  first,
		LastName:   col(1),
		Phone:      utils.NormalizePhone(col(3), im.defaultRegion),
		CampaignID: utils.OptionalString(opts.CampaignID),
		AssignedTo: utils.OptionalString(opts.AssignedTo),
	}
	if label := col(2); label != "" {
		lead.Notes = utils.Pointer("Phone label: " + label)
	}
	return lead
}

// Package marketdata loads option chain snapshots from files and turns
// chain quotes into strategy legs.
package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

// strikeTolerance is the largest difference at which two strikes are the
// same contract.
const strikeTolerance = 1e-6

// chainRow is one contract in a flat chain CSV.
type chainRow struct {
	Strike       float64 `csv:"strike"`
	Type         string  `csv:"type"`
	Bid          float64 `csv:"bid"`
	Ask          float64 `csv:"ask"`
	Last         float64 `csv:"last"`
	Volume       int64   `csv:"volume"`
	OpenInterest int64   `csv:"open_interest"`
	IV           float64 `csv:"iv"`
	Delta        float64 `csv:"delta"`
	Gamma        float64 `csv:"gamma"`
	Theta        float64 `csv:"theta"`
	Vega         float64 `csv:"vega"`
	Vanna        float64 `csv:"vanna"`
	Charm        float64 `csv:"charm"`
}

func (r chainRow) quote() *models.OptionQuote {
	return &models.OptionQuote{
		Bid:          r.Bid,
		Ask:          r.Ask,
		Last:         r.Last,
		Volume:       r.Volume,
		OpenInterest: r.OpenInterest,
		IV:           r.IV,
		Greeks: models.OptionGreeks{
			Delta: r.Delta,
			Gamma: r.Gamma,
			Theta: r.Theta,
			Vega:  r.Vega,
			Vanna: r.Vanna,
			Charm: r.Charm,
		},
	}
}

// LoadChainCSV reads a chain with one contract per row. Calls and puts of the
// same strike are merged; strikes come back sorted ascending. A later row for
// the same contract replaces an earlier one.
func LoadChainCSV(r io.Reader, ticker string, spot float64) (models.OptionChain, error) {
	if !(spot > 0) {
		return models.OptionChain{}, apperrors.ErrInvalidSpot
	}

	var rows []chainRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return models.OptionChain{}, apperrors.NewDataError("chain", ticker, "failed to parse CSV", err)
	}

	byStrike := make(map[float64]*models.OptionStrike)
	for i, row := range rows {
		if !(row.Strike > 0) {
			return models.OptionChain{}, apperrors.NewDataError("chain", ticker, fmt.Sprintf("row %d", i+2),
				apperrors.NewValidationError("strike", row.Strike, "must be positive"))
		}
		t, err := models.ParseOptionType(row.Type)
		if err != nil {
			return models.OptionChain{}, apperrors.NewDataError("chain", ticker, fmt.Sprintf("row %d", i+2), err)
		}

		s, ok := byStrike[row.Strike]
		if !ok {
			s = &models.OptionStrike{Strike: row.Strike}
			byStrike[row.Strike] = s
		}
		if t.IsCall() {
			s.Call = row.quote()
		} else {
			s.Put = row.quote()
		}
	}

	chain := models.OptionChain{
		Ticker:    strings.ToUpper(ticker),
		SpotPrice: spot,
		Strikes:   make([]models.OptionStrike, 0, len(byStrike)),
	}
	for _, s := range byStrike {
		chain.Strikes = append(chain.Strikes, *s)
	}
	sortStrikes(chain.Strikes)
	return chain, nil
}

// LoadChainJSON decodes a chain in its native JSON form.
func LoadChainJSON(r io.Reader) (models.OptionChain, error) {
	var chain models.OptionChain
	if err := json.NewDecoder(r).Decode(&chain); err != nil {
		return models.OptionChain{}, apperrors.NewDataError("chain", "", "failed to decode JSON", err)
	}
	chain.Ticker = strings.ToUpper(chain.Ticker)
	sortStrikes(chain.Strikes)
	return chain, nil
}

// LoadChainFile picks the decoder from the file extension. A positive spot
// or a non-empty ticker overrides whatever the file carries.
func LoadChainFile(path, ticker string, spot float64) (models.OptionChain, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.OptionChain{}, apperrors.Wrapf(err, "failed to open chain %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadChainCSV(f, ticker, spot)
	case ".json":
		chain, err := LoadChainJSON(f)
		if err != nil {
			return chain, err
		}
		if spot > 0 {
			chain.SpotPrice = spot
		}
		if ticker != "" {
			chain.Ticker = strings.ToUpper(ticker)
		}
		if !(chain.SpotPrice > 0) {
			return chain, apperrors.ErrInvalidSpot
		}
		return chain, nil
	default:
		return models.OptionChain{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FindStrike returns the chain entry for strike.
func FindStrike(chain models.OptionChain, strike float64) (models.OptionStrike, bool) {
	for _, s := range chain.Strikes {
		if math.Abs(s.Strike-strike) < strikeTolerance {
			return s, true
		}
	}
	return models.OptionStrike{}, false
}

func sortStrikes(strikes []models.OptionStrike) {
	sort.Slice(strikes, func(i, j int) bool { return strikes[i].Strike < strikes[j].Strike })
}

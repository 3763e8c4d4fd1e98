package ledger

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/storebot/internal/errs"
)

const (
	// OrderIDPrefix prefixes generated order ids.
	OrderIDPrefix = "ORD"
	// DepositIDPrefix prefixes generated deposit ids.
	DepositIDPrefix = "DEP"

	idRandomLen = 5
	// idMaxAttempts bounds regenerate-and-retry on id collisions. Collisions
	// are extremely rare but handled, not assumed impossible.
	idMaxAttempts = 3
)

const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewID generates a human-legible, collision-resistant id of the form
// PREFIX-RANDOM-TIMESTAMP, e.g. ORD-K7F3Q-1J9X2M4T8.
func NewID(prefix string) string {
	buf := make([]byte, idRandomLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// timestamp alone rather than aborting the purchase.
		return fmt.Sprintf("%s-%s", prefix, tsComponent())
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, string(buf), tsComponent())
}

func tsComponent() string {
	return strings.ToUpper(strconv.FormatInt(time.Now().UnixMicro(), 36))
}

// WithFreshID runs insert with freshly generated ids, regenerating and
// retrying a bounded number of times when the store reports a duplicate.
func WithFreshID(prefix string, insert func(id string) error) error {
	var lastErr error
	for attempt := 0; attempt < idMaxAttempts; attempt++ {
		err := insert(NewID(prefix))
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrDuplicateID) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("id generation exhausted after %d attempts: %w", idMaxAttempts, lastErr)
}

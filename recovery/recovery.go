// Package recovery holds the retry budgets for calls that leave the process.
// Budgets differ per service class: the database gets more patience than a
// notification endpoint whose failure must never block a customer.
package recovery

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Kind selects a retry budget
type Kind string

const (
	KindDatabase Kind = "database"
	KindAPI      Kind = "api"
	KindNotify   Kind = "notify"
)

type policy struct {
	attempts int
	delay    time.Duration
	factor   float64
}

var policies = map[Kind]policy{
	KindDatabase: {attempts: 3, delay: 1000 * time.Millisecond, factor: 2},
	KindAPI:      {attempts: 2, delay: 2000 * time.Millisecond, factor: 1.5},
	KindNotify:   {attempts: 2, delay: 1000 * time.Millisecond, factor: 1.5},
}

// ExecuteWithRetry runs op under the budget for kind, sleeping with
// exponential backoff between attempts. The last error is returned when the
// budget is exhausted.
func ExecuteWithRetry(kind Kind, name string, op func() error) error {
	p, ok := policies[kind]
	if !ok {
		p = policies[KindAPI]
	}

	var err error
	delay := p.delay
	for attempt := 1; attempt <= p.attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt < p.attempts {
			log.WithFields(log.Fields{
				"op":      name,
				"attempt": attempt,
				"of":      p.attempts,
			}).Warnf("operation failed, retrying in %s: %v", delay, err)
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * p.factor)
		}
	}
	log.WithField("op", name).Errorf("operation failed after %d attempts: %v", p.attempts, err)
	return err
}

package grade

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/gradebook/core"
)

var (
	// ledgerOpsTotal counts ledger operations by operation and result
	ledgerOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_ledger_operations_total",
		Help: "Total grade ledger operations by operation and result",
	}, []string{"operation", "result"})
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		switch errors.Cause(err).(type) {
		case *core.ValidationError, validator.ValidationErrors:
			result = "invalid"
		default:
			if errors.Cause(err) == ErrNotFound {
				result = "not_found"
			} else {
				result = "error"
			}
		}
	}
	ledgerOpsTotal.WithLabelValues(op, result).Inc()
}

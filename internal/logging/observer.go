package logging

import (
	"asi/pkg/quadrature"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Observer logs integrator decisions. Splits and accepts are debug lines, non-finite
// subtrees are warnings since their contribution is silently dropped.
type Observer[F quadrature.Float] struct {
	log *zap.Logger
}

// NewObserver returns an Observer writing to log.
func NewObserver[F quadrature.Float](log *zap.Logger) *Observer[F] {
	return &Observer[F]{log: log}
}

func (o *Observer[F]) Split(iv quadrature.Interval[F]) {
	if ce := o.log.Check(zapcore.DebugLevel, "split"); ce != nil {
		ce.Write(intervalFields(iv)...)
	}
}

func (o *Observer[F]) Accept(iv quadrature.Interval[F], value F, exhausted bool) {
	if ce := o.log.Check(zapcore.DebugLevel, "accept"); ce != nil {
		ce.Write(append(intervalFields(iv),
			zap.Float64("value", float64(value)),
			zap.Bool("depth_exhausted", exhausted),
		)...)
	}
}

func (o *Observer[F]) NonFinite(iv quadrature.Interval[F]) {
	o.log.Warn("non-finite error estimate", intervalFields(iv)...)
}

func intervalFields[F quadrature.Float](iv quadrature.Interval[F]) []zap.Field {
	return []zap.Field{
		zap.Float64("a", float64(iv.A)),
		zap.Float64("b", float64(iv.B)),
		zap.Float64("tol", float64(iv.Tol)),
		zap.Int("depth", iv.Depth),
		zap.Int("level", iv.Level),
	}
}

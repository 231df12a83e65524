// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/xataio/regexop/pkg/checkpoint"
	loglib "github.com/xataio/regexop/pkg/log"
	"github.com/xataio/regexop/pkg/operator"
	"github.com/xataio/regexop/pkg/otel"
	"github.com/xataio/regexop/pkg/record"
	"github.com/xataio/regexop/pkg/regexop"
	"github.com/xataio/regexop/pkg/regexop/instrumentation"
	"golang.org/x/sync/errgroup"
)

// Reader is a source of records. ReadRecord returns io.EOF once the source
// is exhausted.
type Reader interface {
	ReadRecord(ctx context.Context) (*record.Record, error)
	Close() error
}

// Writer is a sink of records. It is shared by all the pipeline partitions
// and must be safe for concurrent use.
type Writer interface {
	WriteRecord(ctx context.Context, r *record.Record) error
	Close() error
}

type Config struct {
	// Partitions is the number of operator instances processing records in
	// parallel. Defaults to 1.
	Partitions int
	// Operator is the registered name of the operator. Defaults to regexop.
	Operator string
	Args     operator.PropertyList
	Schema   record.Schema
	// Restore makes partitions start from their saved checkpoint, when there
	// is one.
	Restore bool
	// QueueSize is the number of records buffered per partition. Defaults to
	// 100.
	QueueSize int
}

type Pipeline struct {
	config          *Config
	registry        *operator.Registry
	reader          Reader
	writer          Writer
	store           checkpoint.Store
	instrumentation *otel.Instrumentation
	clock           clockwork.Clock
	logger          loglib.Logger
}

type Option func(*Pipeline)

const (
	defaultPartitions = 1
	defaultQueueSize  = 100
)

// Run processes all the records of the reader through the configured
// operator and writes the results. Records are acknowledged to the reader
// once written. The first error stops every partition.
func Run(ctx context.Context, cfg *Config, reader Reader, writer Writer, opts ...Option) error {
	p, err := New(cfg, reader, writer, opts...)
	if err != nil {
		return err
	}
	return p.Run(ctx)
}

func New(cfg *Config, reader Reader, writer Writer, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config: cfg,
		reader: reader,
		writer: writer,
		clock:  clockwork.NewRealClock(),
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.registry == nil {
		p.registry = operator.NewRegistry()
		if err := regexop.Register(p.registry); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(p *Pipeline) {
		p.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "pipeline",
		})
	}
}

// WithRegistry sets the registry the operators are built from. Defaults to a
// registry with the regexop operator.
func WithRegistry(r *operator.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// WithCheckpointStore enables checkpointing of the operator state.
func WithCheckpointStore(s checkpoint.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(p *Pipeline) {
		p.instrumentation = i
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

func (p *Pipeline) Run(ctx context.Context) error {
	operators, err := p.buildOperators(ctx)
	if err != nil {
		return err
	}

	queues := make([]chan *record.Record, len(operators))
	for i := range queues {
		queues[i] = make(chan *record.Record, p.config.queueSize())
	}

	var processed atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	for i, op := range operators {
		eg.Go(func() error {
			return p.runPartition(egCtx, i, op, queues[i], &processed)
		})
	}
	eg.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		return p.dispatch(egCtx, queues)
	})

	err = eg.Wait()
	p.logger.Info("pipeline finished", loglib.Fields{
		"partitions":        len(operators),
		"records_processed": processed.Load(),
	})
	return err
}

func (p *Pipeline) buildOperators(ctx context.Context) ([]operator.Operator, error) {
	n := p.config.partitions()
	operators := make([]operator.Operator, 0, n)
	for i := 0; i < n; i++ {
		op, err := p.buildOperator(ctx, i)
		if err != nil {
			for _, built := range operators {
				built.Close()
			}
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		operators = append(operators, op)
	}
	return operators, nil
}

func (p *Pipeline) buildOperator(ctx context.Context, partition int) (operator.Operator, error) {
	name := p.config.operatorName()
	key := checkpoint.Key(name, partition)
	logger := p.logger.WithFields(loglib.Fields{loglib.PartitionField: partition})

	params := &operator.Params{
		Args:   p.config.Args,
		Next:   &writerProcessor{writer: p.writer},
		Logger: logger,
	}

	restored := false
	if p.config.Restore && p.store != nil {
		cp, err := p.store.Load(ctx, key)
		switch {
		case err == nil:
			params.State = cp.State
			restored = true
			logger.Info("restoring operator from checkpoint", loglib.Fields{
				"checkpoint_id": cp.ID.String(),
				"saved_at":      cp.SavedAt,
			})
		case errors.Is(err, checkpoint.ErrNotFound):
			logger.Info("no checkpoint found, building operator from configuration")
		default:
			return nil, err
		}
	}

	op, err := p.registry.New(ctx, name, params)
	if err != nil {
		return nil, err
	}

	if err := p.prepareOperator(ctx, op, key, restored); err != nil {
		p.closeOperator(partition, op)
		return nil, err
	}

	return instrumentation.NewOperator(op, p.instrumentation)
}

// prepareOperator saves the initial checkpoint of operators built from
// configuration and binds the operator to the input schema.
func (p *Pipeline) prepareOperator(ctx context.Context, op operator.Operator, key string, restored bool) error {
	if p.store != nil && !restored {
		state, err := op.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshotting operator: %w", err)
		}
		if err := p.store.Save(ctx, checkpoint.New(p.clock, key, state)); err != nil {
			return err
		}
	}
	return op.Bind(p.config.Schema)
}

func (p *Pipeline) runPartition(ctx context.Context, partition int, op operator.Operator, queue <-chan *record.Record, processed *atomic.Int64) error {
	for {
		select {
		case <-ctx.Done():
			p.closeOperator(partition, op)
			return ctx.Err()
		case r, ok := <-queue:
			if !ok {
				return op.Close()
			}
			if err := op.ProcessRecord(ctx, r); err != nil {
				p.closeOperator(partition, op)
				return fmt.Errorf("partition %d: %w", partition, err)
			}
			processed.Add(1)
		}
	}
}

func (p *Pipeline) closeOperator(partition int, op operator.Operator) {
	if err := op.Close(); err != nil {
		p.logger.Error(err, "closing operator", loglib.Fields{loglib.PartitionField: partition})
	}
}

func (p *Pipeline) dispatch(ctx context.Context, queues []chan *record.Record) error {
	for {
		r, err := p.reader.ReadRecord(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading record: %w", err)
		}

		select {
		case queues[route(r, len(queues))] <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Config) partitions() int {
	if c.Partitions > 0 {
		return c.Partitions
	}
	return defaultPartitions
}

func (c *Config) queueSize() int {
	if c.QueueSize > 0 {
		return c.QueueSize
	}
	return defaultQueueSize
}

func (c *Config) operatorName() string {
	if c.Operator != "" {
		return c.Operator
	}
	return regexop.OperatorName
}

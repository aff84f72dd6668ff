// ABOUTME: Lazily chained topic naming pipeline with memoized stage results
// ABOUTME: Ensure(stage) materializes every prerequisite stage before the requested one
package core

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/topicnaming/internal/evidence"
	"github.com/harper/topicnaming/internal/layers"
	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/naming"
	"github.com/harper/topicnaming/internal/prompts"
)

// Stage is one step of the pipeline. Each stage depends on the one before it.
type Stage int

const (
	StageLayers Stage = iota
	StageRepresentation
	StageBasePrompts
	StageBaseTopics
	StageUpperTopics
	StageDeduplicated

	numStages = int(StageDeduplicated) + 1
)

var stageNames = []string{"layers", "representation", "base_prompts", "base_topics", "upper_topics", "deduplicated"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Config describes the corpus and the pipeline parameters.
type Config struct {
	Documents []string
	Vectors   [][]float64
	Locations [][]float64

	Techniques        []models.Technique
	DocumentType      string
	CorpusDescription string
	SentenceCount     int

	Layers     layers.Options
	Vocabulary evidence.VocabularyOptions

	TrimPercentile float64
	TrimLength     int
}

// DefaultConfig returns the defaults for everything but the corpus.
func DefaultConfig() Config {
	return Config{
		Techniques:        models.AllTechniques,
		DocumentType:      "titles",
		CorpusDescription: "academic articles",
		SentenceCount:     evidence.DefaultSentenceCount,
		Layers:            layers.DefaultOptions(),
		Vocabulary:        evidence.DefaultVocabularyOptions(),
		TrimPercentile:    prompts.DefaultTrimPercentile,
		TrimLength:        prompts.DefaultTrimLength,
	}
}

// Pipeline holds the optional result of every stage.
type Pipeline struct {
	cfg       Config
	generator llm.Generator
	embedder  llm.Embedder
	tokenizer llm.Tokenizer
	logger    *log.Logger
	builder   *prompts.Builder

	hierarchy      *models.Hierarchy
	representation models.Representation
	repErrors      map[models.Technique]error
	promptLayers   [][]string
	nameLayers     models.NameLayers
	subtopics      [][][]string
	result         *naming.Result
	done           [numStages]bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithGenerator sets the text generation collaborator.
func WithGenerator(g llm.Generator) Option { return func(p *Pipeline) { p.generator = g } }

// WithEmbedder sets the embedding collaborator.
func WithEmbedder(e llm.Embedder) Option { return func(p *Pipeline) { p.embedder = e } }

// WithTokenizer sets the token counter. The default estimates from characters.
func WithTokenizer(t llm.Tokenizer) Option { return func(p *Pipeline) { p.tokenizer = t } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithHierarchy supplies prebuilt cluster layers; the layers stage is then skipped.
func WithHierarchy(h *models.Hierarchy) Option {
	return func(p *Pipeline) {
		p.hierarchy = h
		p.done[StageLayers] = h != nil
	}
}

// NewPipeline validates cfg and returns an empty pipeline.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	n := len(cfg.Documents)
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: no documents", models.ErrConfiguration)
	case len(cfg.Vectors) != n:
		return nil, fmt.Errorf("%w: %d documents but %d vectors", models.ErrConfiguration, n, len(cfg.Vectors))
	case len(cfg.Locations) != n:
		return nil, fmt.Errorf("%w: %d documents but %d locations", models.ErrConfiguration, n, len(cfg.Locations))
	case len(cfg.Techniques) == 0:
		return nil, fmt.Errorf("%w: no representation techniques configured", models.ErrConfiguration)
	case cfg.SentenceCount < 1:
		return nil, fmt.Errorf("%w: sentence count must be positive, got %d", models.ErrConfiguration, cfg.SentenceCount)
	}
	for _, t := range cfg.Techniques {
		if _, err := evidence.SelectorFor(t); err != nil {
			return nil, err
		}
	}
	if err := cfg.Layers.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if p.tokenizer == nil {
		p.tokenizer = llm.ApproxTokenizer{}
	}
	if p.cfg.Layers.Logger == nil {
		p.cfg.Layers.Logger = p.logger
	}
	if p.hierarchy != nil {
		for i := range p.hierarchy.Layers {
			layer := &p.hierarchy.Layers[i]
			finer := -1
			if i > 0 {
				finer = p.hierarchy.Layers[i-1].Len()
			}
			if err := checkLayer(layer, n, finer); err != nil {
				return nil, err
			}
			if len(layer.Neighbors) == 0 && layer.Len() > 0 {
				layer.Neighbors = layers.NeighborTable(layer.Vectors(), p.cfg.Layers.NeighborCount)
			}
		}
	}
	return p, nil
}

// checkLayer rejects indices that would fall outside the corpus, the finer
// layer or the layer itself. finer is negative for the base layer, whose
// metaclusters are flat labels rather than indices into another layer.
func checkLayer(layer *models.Layer, nDocs, finer int) error {
	for _, c := range layer.Clusters {
		for _, d := range c.Pointset {
			if d < 0 || d >= nDocs {
				return fmt.Errorf("%w: layer %d cluster %d references document %d of %d", models.ErrConfiguration, layer.Index, c.Index, d, nDocs)
			}
		}
		if finer < 0 {
			continue
		}
		for _, m := range c.Metaclusters {
			if m < 0 || m >= finer {
				return fmt.Errorf("%w: layer %d cluster %d references sub-topic %d of %d", models.ErrConfiguration, layer.Index, c.Index, m, finer)
			}
		}
	}
	if len(layer.Neighbors) == 0 {
		return nil
	}
	if len(layer.Neighbors) != layer.Len() {
		return fmt.Errorf("%w: layer %d has %d neighbor rows for %d clusters", models.ErrConfiguration, layer.Index, len(layer.Neighbors), layer.Len())
	}
	for i, row := range layer.Neighbors {
		for _, j := range row {
			if j < 0 || j >= layer.Len() {
				return fmt.Errorf("%w: layer %d cluster %d lists neighbor %d of %d", models.ErrConfiguration, layer.Index, i, j, layer.Len())
			}
		}
	}
	return nil
}

// Has reports whether stage has been materialized.
func (p *Pipeline) Has(stage Stage) bool {
	return stage >= 0 && int(stage) < len(p.done) && p.done[stage]
}

// Run materializes every stage.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.Ensure(ctx, StageDeduplicated)
}

// Ensure materializes stage and its prerequisites, reusing earlier results.
func (p *Pipeline) Ensure(ctx context.Context, stage Stage) error {
	if stage < 0 || int(stage) >= len(p.done) {
		return fmt.Errorf("%w: unknown stage %d", models.ErrConfiguration, int(stage))
	}
	if p.done[stage] {
		return nil
	}
	if stage > StageLayers {
		if err := p.Ensure(ctx, stage-1); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debug("building stage", "stage", stage)
	var err error
	switch stage {
	case StageLayers:
		err = p.buildLayers()
	case StageRepresentation:
		err = p.buildRepresentation(ctx)
	case StageBasePrompts:
		err = p.buildBasePrompts()
	case StageBaseTopics:
		err = p.buildBaseTopics(ctx)
	case StageUpperTopics:
		err = p.buildUpperTopics(ctx)
	case StageDeduplicated:
		err = p.deduplicate(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	p.done[stage] = true
	return nil
}

func (p *Pipeline) buildLayers() error {
	h, err := layers.Build(p.cfg.Vectors, p.cfg.Locations, p.cfg.Layers)
	if err != nil {
		return err
	}
	p.hierarchy = h
	return nil
}

func (p *Pipeline) corpus(ctx context.Context) (*evidence.Corpus, error) {
	c := &evidence.Corpus{Docs: p.cfg.Documents, Vectors: p.cfg.Vectors, N: p.cfg.SentenceCount}
	if !models.ContainsTechnique(p.cfg.Techniques, models.Contrastive) {
		return c, nil
	}
	if p.embedder == nil {
		return nil, fmt.Errorf("%w: contrastive keywords need an embedder", models.ErrConfiguration)
	}
	c.Vocab = evidence.BuildVocabulary(p.cfg.Documents, p.cfg.Vocabulary)
	p.logger.Info("built keyphrase vocabulary", "terms", len(c.Vocab.Terms))
	if len(c.Vocab.Terms) > 0 {
		vectors, err := p.embedder.Embed(ctx, c.Vocab.Terms)
		if err != nil {
			return nil, fmt.Errorf("embedding vocabulary: %w", err)
		}
		c.VocabVectors = vectors
	}
	return c, nil
}

// buildRepresentation runs every configured selector over every layer. A
// selector that fails is skipped with a warning so the others survive.
func (p *Pipeline) buildRepresentation(ctx context.Context) error {
	c, err := p.corpus(ctx)
	if err != nil {
		return err
	}
	p.representation = make(models.Representation)
	p.repErrors = make(map[models.Technique]error)
	for _, t := range p.cfg.Techniques {
		selector, err := evidence.SelectorFor(t)
		if err != nil {
			return err
		}
		evidenceLayers := make(models.EvidenceLayers, p.hierarchy.Len())
		var failed error
		for i := range p.hierarchy.Layers {
			evidenceLayers[i], failed = selector(c, &p.hierarchy.Layers[i])
			if failed != nil {
				break
			}
		}
		if failed != nil {
			p.logger.Warn("skipping representation technique", "technique", t, "err", failed)
			p.repErrors[t] = failed
			continue
		}
		p.representation[t] = evidenceLayers
	}
	if len(p.representation) == 0 {
		return fmt.Errorf("every representation technique failed")
	}

	var available []models.Technique
	for _, t := range p.cfg.Techniques {
		if p.representation.Has(t) {
			available = append(available, t)
		}
	}
	p.builder = p.newBuilder(available)
	return nil
}

func (p *Pipeline) newBuilder(techniques []models.Technique) *prompts.Builder {
	window := 0
	if p.generator != nil {
		window = p.generator.ContextWindow()
	}
	return &prompts.Builder{
		DocumentType:      p.cfg.DocumentType,
		CorpusDescription: p.cfg.CorpusDescription,
		Techniques:        techniques,
		Tokenizer:         p.tokenizer,
		ContextWindow:     window,
		TrimLength:        prompts.TrimLength(p.tokenizer, p.cfg.Documents, p.cfg.TrimPercentile, p.cfg.TrimLength, window, p.logger),
		Logger:            p.logger,
	}
}

func (p *Pipeline) buildBasePrompts() error {
	base, err := p.builder.BaseLayer(&p.hierarchy.Layers[0], p.representation, 0, prompts.BaseOptions())
	if err != nil {
		return err
	}
	p.promptLayers = [][]string{base}
	return nil
}

func (p *Pipeline) requireGenerator() error {
	if p.generator == nil {
		return fmt.Errorf("%w: naming needs a text generator", models.ErrConfiguration)
	}
	return nil
}

func (p *Pipeline) buildBaseTopics(ctx context.Context) error {
	if err := p.requireGenerator(); err != nil {
		return err
	}
	p.logger.Info("naming base layer", "clusters", p.hierarchy.Layers[0].Len())
	names, err := naming.NameLayer(ctx, p.generator, p.promptLayers[0])
	if err != nil {
		return err
	}
	p.nameLayers = models.NameLayers{names}
	return nil
}

// buildUpperTopics names each upper layer from sub-topics drawn among the
// names of the layer immediately below it.
func (p *Pipeline) buildUpperTopics(ctx context.Context) error {
	if p.hierarchy.Len() < 2 {
		return nil
	}
	if err := p.requireGenerator(); err != nil {
		return err
	}
	if p.embedder == nil {
		return fmt.Errorf("%w: sub-topics need an embedder", models.ErrConfiguration)
	}
	// Results are committed only once every layer is named, so a retry after
	// a failure starts again from the base layer's names.
	subtopicLayers := make([][][]string, p.hierarchy.Len())
	promptLayers := append([][]string(nil), p.promptLayers[:1]...)
	nameLayers := append(models.NameLayers(nil), p.nameLayers[:1]...)
	for k := 1; k < p.hierarchy.Len(); k++ {
		layer, finer := &p.hierarchy.Layers[k], &p.hierarchy.Layers[k-1]
		finerNames := nameLayers[k-1]
		nameVectors, err := p.embedder.Embed(ctx, finerNames)
		if err != nil {
			return fmt.Errorf("embedding layer %d names: %w", k-1, err)
		}
		subtopics, err := evidence.SubtopicLayer(layer, finer, p.cfg.Vectors, finerNames, nameVectors)
		if err != nil {
			return err
		}
		subtopicLayers[k] = subtopics

		layerPrompts, err := p.builder.SubtopicLayer(layer, p.representation, k, subtopics, prompts.SubtopicOptions())
		if err != nil {
			return err
		}
		p.logger.Info("naming layer", "layer", k, "clusters", layer.Len())
		names, err := naming.NameLayer(ctx, p.generator, layerPrompts)
		if err != nil {
			return err
		}
		promptLayers = append(promptLayers, layerPrompts)
		nameLayers = append(nameLayers, names)
	}
	p.subtopics = subtopicLayers
	p.promptLayers = promptLayers
	p.nameLayers = nameLayers
	return nil
}

func (p *Pipeline) deduplicate(ctx context.Context) error {
	d := &naming.Deduplicator{
		Generator: p.generator,
		Prompts:   p.builder,
		Docs:      p.cfg.Documents,
		Vectors:   p.cfg.Vectors,
		Logger:    p.logger,
	}
	res, err := d.Run(ctx, p.hierarchy, p.nameLayers)
	if err != nil {
		return err
	}
	p.result = res
	return nil
}

// Hierarchy returns the cluster layers, or nil before StageLayers.
func (p *Pipeline) Hierarchy() *models.Hierarchy { return p.hierarchy }

// Representation returns the evidence computed so far.
func (p *Pipeline) Representation() models.Representation { return p.representation }

// RepresentationErrors returns the techniques that were skipped and why.
func (p *Pipeline) RepresentationErrors() map[models.Technique]error { return p.repErrors }

// Prompts returns the naming prompts per layer built so far.
func (p *Pipeline) Prompts() [][]string { return p.promptLayers }

// Subtopics returns sub-topic evidence per layer; layer 0 has none.
func (p *Pipeline) Subtopics() [][][]string { return p.subtopics }

// RawNames returns the generated names before deduplication.
func (p *Pipeline) RawNames() models.NameLayers { return p.nameLayers }

// Result returns the deduplicated names, or nil before StageDeduplicated.
func (p *Pipeline) Result() *naming.Result { return p.result }

// Documents returns the corpus.
func (p *Pipeline) Documents() []string { return p.cfg.Documents }

// Techniques returns the configured representation techniques.
func (p *Pipeline) Techniques() []models.Technique { return p.cfg.Techniques }

// Snapshot packages the pipeline output as a storable run. It returns nil
// until StageDeduplicated has completed. ID, CreatedAt and ChatModel are
// left for the caller.
func (p *Pipeline) Snapshot() *models.Run {
	if p.result == nil {
		return nil
	}
	return &models.Run{
		DocumentType:      p.cfg.DocumentType,
		CorpusDescription: p.cfg.CorpusDescription,
		Techniques:        p.cfg.Techniques,
		Documents:         p.cfg.Documents,
		Hierarchy:         p.hierarchy,
		Representation:    p.representation,
		Subtopics:         p.subtopics,
		RawNames:          p.nameLayers,
		Names:             p.result.Names,
		Attempts:          p.result.Attempts,
	}
}

// Package repository maps campaign entities onto the property graph. Each
// repository owns one entity kind: its node, the edges standing in for its
// foreign keys, and the delete policy for what depends on it.
package repository

import "loremaster/backend/internal/graph"

// Repositories holds one instance of every repository, all sharing an executor
type Repositories struct {
	Worlds         *WorldRepository
	Campaigns      *CampaignRepository
	Sessions       *SessionRepository
	Characters     *CharacterRepository
	Locations      *LocationRepository
	Items          *ItemRepository
	Powers         *PowerRepository
	Events         *EventRepository
	Recordings     *AudioRecordingRepository
	Transcriptions *TranscriptionRepository
	Analyses       *SessionAnalysisRepository
	Proposals      *ChangeProposalRepository
	Visualization  *VisualizationRepository
}

// Option adjusts how the repositories are built
type Option func(*options)

type options struct {
	graphLimits GraphLimits
	pageLimits  PageLimits
}

// WithGraphLimits bounds the depth and sample size of the graph views
func WithGraphLimits(maxDepth, sampleLimit int) Option {
	return func(o *options) {
		o.graphLimits = GraphLimits{MaxDepth: maxDepth, SampleLimit: sampleLimit}
	}
}

// WithPageLimits sets the default and maximum page size of every FindAll
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(o *options) {
		o.pageLimits = PageLimits{Default: defaultLimit, Max: maxLimit}
	}
}

// NewRepositories builds every repository up front
func NewRepositories(exec graph.Executor, opts ...Option) *Repositories {
	o := options{pageLimits: defaultPageLimits()}
	for _, opt := range opts {
		opt(&o)
	}
	repos := &Repositories{
		Worlds:         NewWorldRepository(exec),
		Campaigns:      NewCampaignRepository(exec),
		Sessions:       NewSessionRepository(exec),
		Characters:     NewCharacterRepository(exec),
		Locations:      NewLocationRepository(exec),
		Items:          NewItemRepository(exec),
		Powers:         NewPowerRepository(exec),
		Events:         NewEventRepository(exec),
		Recordings:     NewAudioRecordingRepository(exec),
		Transcriptions: NewTranscriptionRepository(exec),
		Analyses:       NewSessionAnalysisRepository(exec),
		Proposals:      NewChangeProposalRepository(exec),
		Visualization:  NewVisualizationRepository(exec, o.graphLimits),
	}

	paging := o.pageLimits.normalized()
	for _, b := range []*base{
		&repos.Worlds.base, &repos.Campaigns.base, &repos.Sessions.base,
		&repos.Characters.base, &repos.Locations.base, &repos.Items.base,
		&repos.Powers.base, &repos.Events.base, &repos.Recordings.base,
		&repos.Transcriptions.base, &repos.Analyses.base, &repos.Proposals.base,
	} {
		b.paging = paging
	}
	return repos
}

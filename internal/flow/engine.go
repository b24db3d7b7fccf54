package flow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/internal/catalog/repository"
	"propertypilot_backend/internal/nlu"
	"propertypilot_backend/internal/policy"
	"propertypilot_backend/internal/search"
	"propertypilot_backend/internal/session"
	"propertypilot_backend/platform/apperr"
	"propertypilot_backend/platform/logger"
)

// Result window sizes. The first search shows a short teaser window; each
// explicit "show more" advances the offset by a full page.
const (
	initialWindowSize = 3
	showMorePageSize  = 5
)

// Outcome labels what kind of answer a turn produced.
type Outcome string

const (
	OutcomeResults       Outcome = "results"
	OutcomeNoMoreResults Outcome = "no_more_results"
	OutcomeGathering     Outcome = "gathering"
	OutcomeProjectDetail Outcome = "project_detail"
	OutcomeHandoff       Outcome = "handoff"
	OutcomeObjection     Outcome = "objection"
	OutcomeGeneral       Outcome = "general"
	OutcomeNoAnchor      Outcome = "no_anchor"
	OutcomeRefused       Outcome = "refused"
)

// Fixed conversational messages. Model output never replaces these.
const (
	msgNoMoreResults = "That's everything matching your requirements right now. Want me to adjust the budget or look at nearby areas?"
	msgAskLocation   = "Which area should I look around?"
	msgAskProject    = "Which project do you have in mind?"
	msgNoAnchor      = "I don't have that area on my map yet. Could you name a nearby locality instead?"
	msgHandoff       = "Great, I'll arrange a site visit. Our sales team will reach out shortly to confirm a slot."
	msgObjection     = "That's fair. I can look at nearby areas or a slightly different budget if you'd like."
	msgGeneral       = "Happy to help. Whenever you're ready, tell me what you're looking for in a home."
)

// Relaxation reports that the budget ceiling was widened to produce results.
type Relaxation struct {
	Multiplier float64 `json:"multiplier"`
	Note       string  `json:"note"`
}

// TurnInput is one user turn. Filters carries explicit structured criteria
// from the caller (UI chips etc.); explicit filters win over extracted ones.
type TurnInput struct {
	SessionID string
	Text      string
	Filters   *search.Filter
}

// TurnResult is the structured outcome of one processed turn.
type TurnResult struct {
	SessionID  string           `json:"sessionId"`
	Node       Node             `json:"node"`
	Intent     nlu.Intent       `json:"intent"`
	Outcome    Outcome          `json:"outcome"`
	Confidence policy.Tier      `json:"confidence,omitempty"`
	Stage      search.Stage     `json:"stage,omitempty"`
	Matches    []search.Match   `json:"matches,omitempty"`
	Remaining  int              `json:"remaining"`
	Relaxation *Relaxation      `json:"relaxation,omitempty"`
	Refusal    *policy.Refusal  `json:"refusal,omitempty"`
	Selected   *catalog.Project `json:"selected,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// Options are the engine tunables; zero values get safe defaults.
type Options struct {
	RadiusKM       float64
	NLUTimeout     time.Duration
	CatalogTimeout time.Duration
	StoreTimeout   time.Duration
}

// Engine drives the conversation state machine. Turns for the same session
// are serialized; state is persisted only after a turn fully succeeds, so a
// failed turn never leaves partial state behind.
type Engine struct {
	store      session.Store
	catalog    repository.Store
	classifier nlu.Classifier
	extractor  nlu.Extractor
	relaxer    *search.Relaxer
	log        *logger.Logger

	radiusKM       float64
	nluTimeout     time.Duration
	catalogTimeout time.Duration
	storeTimeout   time.Duration
	locks          *sessionLocks
}

// NewEngine wires the conversation engine. classifier and extractor may be
// nil when language understanding is disabled; turns then route on the
// interceptor alone and fall back to requirement gathering.
func NewEngine(store session.Store, catalogStore repository.Store, classifier nlu.Classifier, extractor nlu.Extractor, opts Options, log *logger.Logger) *Engine {
	if opts.RadiusKM <= 0 {
		opts.RadiusKM = search.DefaultRadiusKM
	}
	if opts.NLUTimeout <= 0 {
		opts.NLUTimeout = 10 * time.Second
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = 5 * time.Second
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 3 * time.Second
	}
	return &Engine{
		store:          store,
		catalog:        catalogStore,
		classifier:     classifier,
		extractor:      extractor,
		relaxer:        search.NewRelaxer(catalogStore),
		log:            log,
		radiusKM:       opts.RadiusKM,
		nluTimeout:     opts.NLUTimeout,
		catalogTimeout: opts.CatalogTimeout,
		storeTimeout:   opts.StoreTimeout,
		locks:          newSessionLocks(),
	}
}

// ProcessTurn runs one turn through the pipeline: route the utterance, merge
// requirements, transition, execute the node action, then persist.
func (e *Engine) ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	release := e.locks.acquire(in.SessionID)
	defer release()

	state := e.loadState(ctx, in.SessionID)

	cls, extracted, err := e.understand(ctx, in, state)
	if err != nil {
		if errors.Is(err, nlu.ErrQuotaExceeded) {
			return nil, apperr.Unavailable("the assistant is temporarily degraded, please retry in a moment")
		}
		return nil, err
	}

	intent := cls.Intent
	if intent.IsProperty() || intent == nlu.IntentUnknown {
		state.Requirements.Apply(extracted)
		if in.Filters != nil {
			state.Requirements.Apply(*in.Filters)
		}
	}

	tr := route(state.CurrentNode, intent)
	if tr.Window == windowReplace {
		// A replacing turn invalidates the cached window before its action
		// runs, so a failed search can never serve stale pagination.
		state.LastSearchResults = nil
		state.PaginationOffset = 0
		state.LastShownProjects = nil
	}
	result := &TurnResult{SessionID: in.SessionID, Intent: intent}

	switch intent {
	case nlu.IntentSearch:
		err = e.runSearch(ctx, state, result)
	case nlu.IntentShowMore:
		e.paginate(state, tr, result)
	case nlu.IntentNearby:
		err = e.radiusPivot(ctx, state, result)
	case nlu.IntentProjectDetail:
		err = e.projectDetail(ctx, state, result)
	case nlu.IntentScheduleVisit:
		err = e.scheduleVisit(ctx, state, result)
	case nlu.IntentObjection:
		e.transitionTo(state, result, tr.Next)
		result.Outcome = OutcomeObjection
		result.Message = msgObjection
		result.Selected = e.selectedProject(ctx, state)
	case nlu.IntentOutOfScope:
		e.transitionTo(state, result, tr.Next)
		result.Outcome = OutcomeRefused
		result.Refusal = policy.NewRefusal(policy.ReasonUnsupportedIntent)
	case nlu.IntentGeneral:
		// Non-property turn: no project records may be attached.
		e.transitionTo(state, result, tr.Next)
		result.Outcome = OutcomeGeneral
		result.Message = msgGeneral
	default:
		e.gather(state, result)
	}
	if err != nil {
		return nil, err
	}

	state.LastIntent = intent
	if err := e.persist(ctx, in.SessionID, state); err != nil {
		// The turn already has its answer; losing one snapshot costs at most
		// some stickiness on the next turn.
		e.log.Warn("session_persist_failed",
			slog.String("session_id", in.SessionID),
			slog.String("error", err.Error()),
		)
	}
	return result, nil
}

// Reset drops all conversation state for a session.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	release := e.locks.acquire(sessionID)
	defer release()

	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.store.Delete(sctx, sessionID)
}

// understand routes the utterance: the deterministic interceptor first, and
// only when it abstains the classifier and extractor, in parallel under one
// deadline. A failed classification degrades to unknown; only quota errors
// propagate, as they need a distinct degraded response.
func (e *Engine) understand(ctx context.Context, in TurnInput, state *ConversationState) (nlu.Classification, search.Filter, error) {
	if ic, ok := intercept(in.Text, e.projectNames(ctx)); ok {
		if ic.ProjectName != "" {
			state.SelectedProjectName = ic.ProjectName
		}
		return nlu.Classification{Intent: ic.Intent, Confidence: 1}, search.Filter{}, nil
	}

	cls := nlu.Classification{Intent: nlu.IntentUnknown}
	var extracted search.Filter

	nctx, cancel := context.WithTimeout(ctx, e.nluTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(nctx)
	g.Go(func() error {
		if e.classifier == nil {
			return nil
		}
		got, err := e.classifier.Classify(gctx, in.Text, turnHistory(state))
		if err != nil {
			if errors.Is(err, nlu.ErrQuotaExceeded) {
				return err
			}
			e.log.ClassifierFallback(in.SessionID, err)
			return nil
		}
		cls = got
		return nil
	})
	g.Go(func() error {
		if e.extractor == nil {
			return nil
		}
		got, err := e.extractor.Extract(gctx, in.Text)
		if err != nil {
			if errors.Is(err, nlu.ErrQuotaExceeded) {
				return err
			}
			e.log.Warn("filter_extraction_failed",
				slog.String("session_id", in.SessionID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		extracted = got
		return nil
	})
	if err := g.Wait(); err != nil {
		return nlu.Classification{}, search.Filter{}, err
	}

	if cls.Confidence < nlu.MinIntentConfidence {
		cls.Intent = nlu.IntentUnknown
	}
	return cls, extracted, nil
}

// runSearch executes the full ranking and fallback ladder, then gates the
// answer on confidence. The window replaces any cached results.
func (e *Engine) runSearch(ctx context.Context, state *ConversationState, result *TurnResult) error {
	f := state.Requirements.Filter
	if f.IsEmpty() {
		e.gather(state, result)
		return nil
	}

	candidates, err := e.searchCatalog(ctx, broadQuery(f))
	if err != nil {
		e.log.CatalogError("search", err)
		return apperr.Wrap(apperr.KindInternal, "project search failed", err)
	}

	matches := search.Rank(f, candidates)

	if len(matches) == 0 && f.BudgetMax != nil {
		budget := *f.BudgetMax
		cctx, cancel := context.WithTimeout(ctx, e.catalogTimeout)
		relaxed, multiplier, rerr := e.relaxer.RelaxAndFind(cctx, budget, f)
		cancel()
		if rerr != nil {
			e.log.CatalogError("relax", rerr)
			return apperr.Wrap(apperr.KindInternal, "project search failed", rerr)
		}
		if multiplier != nil {
			matches = relaxed
			result.Relaxation = &Relaxation{
				Multiplier: *multiplier,
				Note:       search.ExplainRelaxation(*multiplier, budget),
			}
		}
	}

	if len(matches) == 0 && f.BudgetMax != nil {
		matches = search.NearestBudget(f, candidates)
	}

	tier := policy.Score(matches)
	if refuse, reason := policy.ShouldRefuse(nlu.IntentSearch, len(matches), tier); refuse {
		result.Confidence = tier
		e.refuse(state, result, reason)
		return nil
	}

	e.replaceWindow(state, result, matches, NodeResults)
	result.Confidence = tier
	return nil
}

// paginate advances over the cached result set by one page.
func (e *Engine) paginate(state *ConversationState, tr transition, result *TurnResult) {
	total := len(state.LastSearchResults)
	if total == 0 || state.PaginationOffset >= total {
		e.transitionTo(state, result, tr.Next)
		result.Outcome = OutcomeNoMoreResults
		result.Message = msgNoMoreResults
		return
	}

	start := state.PaginationOffset
	end := start + showMorePageSize
	if end > total {
		end = total
	}
	page := state.LastSearchResults[start:end]

	// The offset advances by the page size, clamped to the set length.
	state.PaginationOffset = start + showMorePageSize
	if state.PaginationOffset > total {
		state.PaginationOffset = total
	}
	for _, m := range page {
		state.LastShownProjects = append(state.LastShownProjects, m.Project.Name)
	}

	e.transitionTo(state, result, NodeResults)
	result.Outcome = OutcomeResults
	result.Matches = page
	result.Remaining = total - state.PaginationOffset
	result.Stage = page[0].Stage
	result.Confidence = policy.Score(page)
}

// radiusPivot replaces the window with candidates within the configured
// radius of the buyer's last known location, nearest first.
func (e *Engine) radiusPivot(ctx context.Context, state *ConversationState, result *TurnResult) error {
	anchor := state.Requirements.Filter.Locality
	if anchor == "" {
		e.transitionTo(state, result, NodeGathering)
		result.Outcome = OutcomeGathering
		result.Message = msgAskLocation
		return nil
	}

	// The pivot deliberately looks past the named locality; every other
	// accumulated constraint still applies.
	loose := state.Requirements.Filter
	loose.Locality = ""
	candidates, err := e.searchCatalog(ctx, loose.ToQuery())
	if err != nil {
		e.log.CatalogError("radius_pivot", err)
		return apperr.Wrap(apperr.KindInternal, "project search failed", err)
	}

	located, err := search.WithinRadius(anchor, candidates, e.radiusKM)
	if errors.Is(err, search.ErrNoAnchor) {
		e.transitionTo(state, result, state.CurrentNode)
		result.Outcome = OutcomeNoAnchor
		result.Message = msgNoAnchor
		return nil
	}
	if err != nil {
		return err
	}

	matches := search.ToMatches(located)
	if len(matches) == 0 {
		e.refuse(state, result, policy.ReasonNoRelevantInfo)
		return nil
	}

	e.replaceWindow(state, result, matches, NodeRadiusPivot)
	result.Confidence = policy.Score(matches)
	return nil
}

// projectDetail answers about the sticky selected project.
func (e *Engine) projectDetail(ctx context.Context, state *ConversationState, result *TurnResult) error {
	name := state.SelectedProjectName
	if name == "" {
		e.transitionTo(state, result, state.CurrentNode)
		result.Outcome = OutcomeGathering
		result.Message = msgAskProject
		return nil
	}

	project, err := e.getProject(ctx, name)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			e.refuse(state, result, policy.ReasonNoRelevantInfo)
			return nil
		}
		e.log.CatalogError("project_detail", err)
		return apperr.Wrap(apperr.KindInternal, "project lookup failed", err)
	}

	state.SelectedProjectName = project.Name
	e.transitionTo(state, result, NodeProjectDetail)
	result.Outcome = OutcomeProjectDetail
	result.Selected = &project
	result.Confidence = policy.High
	return nil
}

// scheduleVisit hands the conversation off against the selected project.
func (e *Engine) scheduleVisit(ctx context.Context, state *ConversationState, result *TurnResult) error {
	name := state.SelectedProjectName
	if name == "" {
		e.transitionTo(state, result, state.CurrentNode)
		result.Outcome = OutcomeGathering
		result.Message = msgAskProject
		return nil
	}

	project, err := e.getProject(ctx, name)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			e.refuse(state, result, policy.ReasonNoRelevantInfo)
			return nil
		}
		e.log.CatalogError("schedule_visit", err)
		return apperr.Wrap(apperr.KindInternal, "project lookup failed", err)
	}

	e.transitionTo(state, result, NodeSiteVisit)
	result.Outcome = OutcomeHandoff
	result.Selected = &project
	result.Message = msgHandoff
	return nil
}

// replaceWindow caches the full ranked set and exposes the teaser window.
// A single-candidate result set becomes the sticky selected project.
func (e *Engine) replaceWindow(state *ConversationState, result *TurnResult, matches []search.Match, node Node) {
	shown := matches
	if len(shown) > initialWindowSize {
		shown = shown[:initialWindowSize]
	}

	state.LastSearchResults = matches
	state.PaginationOffset = len(shown)
	state.LastShownProjects = state.LastShownProjects[:0]
	for _, m := range shown {
		state.LastShownProjects = append(state.LastShownProjects, m.Project.Name)
	}
	if len(matches) == 1 {
		state.SelectedProjectName = matches[0].Project.Name
	}

	e.transitionTo(state, result, node)
	result.Outcome = OutcomeResults
	result.Matches = shown
	result.Remaining = len(matches) - state.PaginationOffset
	result.Stage = shown[0].Stage
}

// gather moves the conversation into requirement gathering with a prompt for
// whatever slots are still missing.
func (e *Engine) gather(state *ConversationState, result *TurnResult) {
	e.transitionTo(state, result, NodeGathering)
	result.Outcome = OutcomeGathering
	result.Message = gatheringPrompt(state.Requirements)
}

// refuse answers with a fixed refusal message and returns to gathering so
// the buyer can adjust their criteria.
func (e *Engine) refuse(state *ConversationState, result *TurnResult, reason policy.Reason) {
	e.transitionTo(state, result, NodeGathering)
	result.Outcome = OutcomeRefused
	result.Refusal = policy.NewRefusal(reason)
}

func (e *Engine) transitionTo(state *ConversationState, result *TurnResult, node Node) {
	state.CurrentNode = node
	result.Node = node
}

func (e *Engine) loadState(ctx context.Context, sessionID string) *ConversationState {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	envelope, err := e.store.Get(sctx, sessionID)
	if err != nil {
		e.log.Warn("session_load_failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return NewConversationState()
	}
	return StateFromEnvelope(envelope)
}

func (e *Engine) persist(ctx context.Context, sessionID string, state *ConversationState) error {
	envelope, err := state.Envelope()
	if err != nil {
		return err
	}
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.store.Set(sctx, sessionID, envelope)
}

func (e *Engine) searchCatalog(ctx context.Context, q catalog.Query) ([]catalog.Project, error) {
	cctx, cancel := context.WithTimeout(ctx, e.catalogTimeout)
	defer cancel()
	return e.catalog.Search(cctx, q)
}

func (e *Engine) getProject(ctx context.Context, name string) (catalog.Project, error) {
	cctx, cancel := context.WithTimeout(ctx, e.catalogTimeout)
	defer cancel()
	return e.catalog.GetByName(cctx, name)
}

// projectNames feeds the interceptor. A catalog failure here only disables
// name interception for the turn, so it is logged and swallowed.
func (e *Engine) projectNames(ctx context.Context) []string {
	cctx, cancel := context.WithTimeout(ctx, e.catalogTimeout)
	defer cancel()

	names, err := e.catalog.Names(cctx)
	if err != nil {
		e.log.CatalogError("names", err)
		return nil
	}
	return names
}

func (e *Engine) selectedProject(ctx context.Context, state *ConversationState) *catalog.Project {
	if state.SelectedProjectName == "" {
		return nil
	}
	project, err := e.getProject(ctx, state.SelectedProjectName)
	if err != nil {
		return nil
	}
	return &project
}

// broadQuery fetches locality-level candidates without the budget and
// bedroom predicates so the later ladder stages have material to rank.
func broadQuery(f search.Filter) catalog.Query {
	return catalog.Query{
		Locality:           f.Locality,
		PropertyTypes:      f.PropertyTypes,
		PossessionStatuses: f.PossessionStatuses,
	}
}

func gatheringPrompt(r Requirements) string {
	var missing []string
	if r.Filter.Locality == "" {
		missing = append(missing, "location")
	}
	if r.Filter.BudgetMax == nil {
		missing = append(missing, "budget")
	}
	if len(r.Filter.Bedrooms) == 0 {
		missing = append(missing, "configuration")
	}
	if len(missing) == 0 {
		return "Could you tell me a bit more about what you're looking for?"
	}
	return "Could you share your preferred " + strings.Join(missing, ", ") + "?"
}

// turnHistory gives the classifier compact conversational context.
func turnHistory(state *ConversationState) []string {
	var history []string
	if state.LastIntent != "" {
		history = append(history, "last_intent: "+string(state.LastIntent))
	}
	if state.SelectedProjectName != "" {
		history = append(history, "selected_project: "+state.SelectedProjectName)
	}
	if len(state.LastShownProjects) > 0 {
		history = append(history, "shown_projects: "+strings.Join(state.LastShownProjects, ", "))
	}
	return history
}

package article

const (
	TopicCreated         = "article.created"
	TopicContentUpdated  = "article.content_updated"
	TopicContentReverted = "article.content_reverted"
	TopicCategoryChanged = "article.category_changed"
	TopicStateChanged    = "article.state_changed"
	TopicDeleted         = "article.deleted"
)

// Event is an immutable fact about one article.
type Event interface {
	Topic() string
	AggregateID() string
}

type Created struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	CurrentVersion  string   `json:"current_version"`
	CategoryID      string   `json:"category_id"`
	Author          string   `json:"author"`
	State           State    `json:"state"`
	Title           string   `json:"title"`
	Tags            []string `json:"tags"`
	Body            string   `json:"body"`
	RenderedBody    string   `json:"rendered_body"`
	Summary         string   `json:"summary"`
	RenderedSummary string   `json:"rendered_summary"`
}

func (e Created) Topic() string       { return TopicCreated }
func (e Created) AggregateID() string { return e.ID }

type ContentUpdated struct {
	ID              string   `json:"id"`
	ParentVersion   string   `json:"parent_version"`
	CurrentVersion  string   `json:"current_version"`
	Title           string   `json:"title"`
	Tags            []string `json:"tags"`
	Body            string   `json:"body"`
	RenderedBody    string   `json:"rendered_body"`
	Summary         string   `json:"summary"`
	RenderedSummary string   `json:"rendered_summary"`
}

func (e ContentUpdated) Topic() string       { return TopicContentUpdated }
func (e ContentUpdated) AggregateID() string { return e.ID }

type ContentReverted struct {
	ID             string `json:"id"`
	PrevVersion    string `json:"prev_version"`
	CurrentVersion string `json:"current_version"`
}

func (e ContentReverted) Topic() string       { return TopicContentReverted }
func (e ContentReverted) AggregateID() string { return e.ID }

type CategoryChanged struct {
	ID            string `json:"id"`
	OldCategoryID string `json:"old_category_id"`
	NewCategoryID string `json:"new_category_id"`
}

func (e CategoryChanged) Topic() string       { return TopicCategoryChanged }
func (e CategoryChanged) AggregateID() string { return e.ID }

type StateChanged struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}

func (e StateChanged) Topic() string       { return TopicStateChanged }
func (e StateChanged) AggregateID() string { return e.ID }

type Deleted struct {
	ID string `json:"id"`
}

func (e Deleted) Topic() string       { return TopicDeleted }
func (e Deleted) AggregateID() string { return e.ID }

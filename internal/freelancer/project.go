package freelancer

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	TypeFixed  = "fixed"
	TypeHourly = "hourly"

	StatusActive = "active"

	projectLinkBase = "https://www.freelancer.com/projects"
	sortByUpdated   = "time_updated"
)

type Projects []*Project

type Project struct {
	ID          int64    `json:"id,omitempty"`
	OwnerID     int64    `json:"owner_id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Preview     string   `json:"preview_description,omitempty"`
	SeoURL      string   `json:"seo_url,omitempty"`
	Status      string   `json:"status,omitempty"`
	Type        string   `json:"type,omitempty"`
	SubmitDate  int64    `json:"submitdate,omitempty"`
	Currency    Currency `json:"currency,omitempty"`
	Budget      Budget   `json:"budget,omitempty"`
	Upgrades    Upgrades `json:"upgrades,omitempty"`
}

type Currency struct {
	Code         string  `json:"code,omitempty"`
	ExchangeRate float64 `json:"exchange_rate,omitempty"`
	Country      string  `json:"country,omitempty"`
}

type Budget struct {
	Minimum float64 `json:"minimum,omitempty"`
	Maximum float64 `json:"maximum,omitempty"`
}

type Upgrades struct {
	NDA      bool `json:"NDA,omitempty"`
	Featured bool `json:"featured,omitempty"`
	Sealed   bool `json:"sealed,omitempty"`
}

// SearchParams describes an active-projects search. Fields are turned into
// query parameters by the flparam tag.
type SearchParams struct {
	Query           string   `flparam:"query"`
	Skills          []int    `flparam:"jobs[]" mapstructure:"skills"`
	Languages       []string `flparam:"languages[]" mapstructure:"languages"`
	SortField       string   `flparam:"sort_field"`
	OrSearchQuery   bool     `flparam:"or_search_query"`
	FullDescription bool     `flparam:"full_description"`
	Limit           int      `flparam:"limit"`
	Offset          int      `flparam:"offset"`
}

type projectsResult struct {
	Projects []map[string]any `json:"projects"`
}

// Search returns active projects matching params in the order the API sends them.
func (c *Client) Search(ctx context.Context, params SearchParams) (Projects, error) {
	if params.SortField == "" {
		params.SortField = sortByUpdated
	}

	var result projectsResult
	if err := c.getJSON(ctx, projectsPath+"/projects/active/", buildParams(&params), &result); err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}

	return decodeProjects(result.Projects)
}

// ProjectDetails fetches full descriptions and budgets for the given projects.
func (c *Client) ProjectDetails(ctx context.Context, ids []int64) (Projects, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("projects[]", strconv.FormatInt(id, 10))
	}
	q.Set("full_description", "true")
	q.Set("job_details", "true")
	q.Set("qualification_details", "true")
	q.Set("location_details", "true")
	q.Set("user_details", "true")
	q.Set("user_reputation", "true")
	q.Set("user_location_details", "true")

	var result projectsResult
	if err := c.getJSON(ctx, projectsPath+"/projects/", q, &result); err != nil {
		return nil, fmt.Errorf("get project details: %w", err)
	}

	return decodeProjects(result.Projects)
}

func decodeProjects(items []map[string]any) (Projects, error) {
	var projects Projects

	cfg := &mapstructure.DecoderConfig{
		Result:           &projects,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	return projects, nil
}

func (p *Project) IsFixed() bool {
	return strings.EqualFold(p.Type, TypeFixed)
}

func (p *Project) IsActive() bool {
	return strings.EqualFold(p.Status, StatusActive)
}

func (p *Project) SubmittedAt() time.Time {
	if p.SubmitDate == 0 {
		return time.Time{}
	}
	return time.Unix(p.SubmitDate, 0)
}

// Link returns the public project page.
func (p *Project) Link() string {
	if p.SeoURL != "" {
		return fmt.Sprintf("%s/%s/details", projectLinkBase, p.SeoURL)
	}
	return fmt.Sprintf("%s/%d", projectLinkBase, p.ID)
}

// Enrich copies the full title, description and budget from a detail lookup.
func (p *Project) Enrich(details *Project) {
	if details == nil {
		return
	}

	p.Title = details.Title
	p.Description = details.Description
	p.Budget = details.Budget
}

func (p Projects) Len() int {
	return len(p)
}

func (p Projects) IDs() []int64 {
	ids := make([]int64, 0, len(p))
	for _, project := range p {
		ids = append(ids, project.ID)
	}
	return ids
}

func (p Projects) FindByID(id int64) *Project {
	for _, project := range p {
		if project.ID == id {
			return project
		}
	}
	return nil
}

// Keep returns the projects for which keep reports true, preserving order.
func (p Projects) Keep(keep func(*Project) bool) Projects {
	kept := make(Projects, 0, len(p))
	for _, project := range p {
		if keep(project) {
			kept = append(kept, project)
		}
	}
	return kept
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		key := field.Tag.Get("flparam")
		if key == "" {
			continue
		}

		value := reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface()
		switch v := value.(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" && s != "false" {
				q.Set(key, s)
			}
		}
	}

	return q
}

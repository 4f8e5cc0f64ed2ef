package freelancer

import "context"

// Feed searches active projects with a fixed set of skills and languages,
// leaving only paging to the caller.
type Feed struct {
	client *Client
	params SearchParams
}

func NewFeed(client *Client, skills []int, languages []string) *Feed {
	return &Feed{
		client: client,
		params: SearchParams{
			Skills:        skills,
			Languages:     languages,
			SortField:     sortByUpdated,
			OrSearchQuery: true,
		},
	}
}

func (f *Feed) Search(ctx context.Context, limit, offset int) (Projects, error) {
	params := f.params
	params.Limit = limit
	params.Offset = offset

	return f.client.Search(ctx, params)
}

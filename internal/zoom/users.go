package zoom

import (
	"context"
	"net/url"
	"strconv"
)

// User is one principal in the account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
}

type usersPage struct {
	Users         []User `json:"users"`
	NextPageToken string `json:"next_page_token"`
}

// ListUsers returns every active user in the account, following pagination
// until the remote signals no further pages.
func (c *Client) ListUsers(ctx context.Context, pageSize int) ([]User, error) {
	var users []User
	pageToken := ""
	for {
		q := url.Values{
			"page_size": {strconv.Itoa(pageSize)},
			"status":    {"active"},
		}
		if pageToken != "" {
			q.Set("next_page_token", pageToken)
		}

		var page usersPage
		if err := c.getJSON(ctx, "/users", q, &page); err != nil {
			return nil, err
		}
		users = append(users, page.Users...)

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.Info("enumerated account users", "count", len(users))
	return users, nil
}

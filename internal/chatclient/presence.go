package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Who fetches the identities present on the relay at baseURL (http or
// https), restricted to room unless it is empty.
func Who(ctx context.Context, httpClient *http.Client, baseURL, room string) ([]chat.Identity, error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/clients"
	if room != "" {
		endpoint += "/" + url.PathEscape(room)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("presence request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("presence request: unexpected status %s", resp.Status)
	}

	var ids []chat.Identity
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("decode presence: %w", err)
	}
	return ids, nil
}

// RenderPresence writes ids as a table.
func RenderPresence(w io.Writer, ids []chat.Identity) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Nickname", "Color"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)

	for _, id := range ids {
		table.Append([]string{id.Room, id.Nickname, id.Color})
	}
	table.Render()
}

// HTTPBase derives the presence API base URL from a websocket server URL.
func HTTPBase(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}

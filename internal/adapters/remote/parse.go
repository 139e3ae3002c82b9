package remote

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hylla/fomo/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// page is the data scraped from one dashboard render.
type page struct {
	board domain.Board
	csrf  string
}

// parsePage reads groups, tasks, the inbox count, and the csrf token from dashboard markup.
// Groups and tasks keep document order; a task's position is its index within its group.
func parsePage(r io.Reader) (page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return page{}, fmt.Errorf("parse dashboard html: %w", err)
	}

	var (
		out          page
		inboxCount   = -1
		groupCounted = map[string]bool{}
		positions    = map[string]int{}
	)
	walk(root, func(n *html.Node) {
		switch {
		case n.DataAtom == atom.Meta && attr(n, "name") == "csrf-token":
			if out.csrf == "" {
				out.csrf = strings.TrimSpace(attr(n, "content"))
			}
		case n.DataAtom == atom.Input && attr(n, "name") == "csrfmiddlewaretoken":
			if out.csrf == "" {
				out.csrf = strings.TrimSpace(attr(n, "value"))
			}
		}
		if raw, ok := attrOK(n, "data-inbox-count"); ok && inboxCount < 0 {
			if count, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && count >= 0 {
				inboxCount = count
			}
		}
		if hasClass(n, "sidebar-group-wrapper") {
			if group, counted, ok := parseGroup(n, len(out.board.Groups)+1); ok {
				out.board.Groups = append(out.board.Groups, group)
				groupCounted[group.ID] = counted
			}
		}
		if hasClass(n, "task-item") {
			groupID := strings.TrimSpace(attr(n, "data-group-id"))
			if task, ok := parseTask(n, groupID, positions[groupID]+1); ok {
				positions[groupID]++
				out.board.Tasks = append(out.board.Tasks, task)
			}
		}
	})

	for idx := range out.board.Groups {
		group := &out.board.Groups[idx]
		if !groupCounted[group.ID] {
			group.TaskCount = positions[group.ID]
		}
	}
	if inboxCount < 0 {
		inboxCount = positions[domain.InboxID]
	}
	out.board.InboxCount = inboxCount
	return out, nil
}

func parseGroup(n *html.Node, order int) (domain.Group, bool, bool) {
	id := attr(n, "data-group-id")
	name := attr(n, "data-group-name")
	if strings.TrimSpace(name) == "" {
		name = text(n)
	}
	group, err := domain.NewGroup(id, name, attr(n, "data-group-color"), order)
	if err != nil {
		return domain.Group{}, false, false
	}
	raw, ok := attrOK(n, "data-task-count")
	if !ok {
		return group, false, true
	}
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count < 0 {
		return group, false, true
	}
	group.TaskCount = count
	return group, true, true
}

func parseTask(n *html.Node, groupID string, position int) (domain.Task, bool) {
	title := attr(n, "data-task-title")
	if strings.TrimSpace(title) == "" {
		title = text(n)
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:        attr(n, "data-task-id"),
		GroupID:   groupID,
		Position:  position,
		Title:     title,
		Priority:  domain.ParsePriority(attr(n, "data-priority")),
		Repeat:    domain.ParseRepeatFrequency(attr(n, "data-repeat")),
		Completed: parseBool(attr(n, "data-completed")),
	})
	if err != nil {
		return domain.Task{}, false
	}
	return task, true
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// walk visits element nodes in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	val, _ := attrOK(n, key)
	return val
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

// text returns the whitespace-collapsed text content of a node.
func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

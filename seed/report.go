package seed

import (
	"fmt"
	"io"
	"strings"
)

const reportRule = "----------------------------------------"

func mode(dryRun bool) string {
	if dryRun {
		return "dry-run (no changes written)"
	}
	return "applied"
}

func writeList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "  %s (%d)\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(w, "    - %s\n", it)
	}
}

// WriteText prints a human readable summary of r.
func (r *UpReport) WriteText(w io.Writer) {
	fmt.Fprintln(w, "[seed up]")
	fmt.Fprintln(w, reportRule)
	admin := r.Admin
	if admin == "" {
		admin = "n/a"
	}
	fmt.Fprintf(w, "admin: %s\n", admin)
	fmt.Fprintln(w, "categories:")
	if len(r.RootsCreated) > 0 {
		fmt.Fprintf(w, "  roots created: %s\n", strings.Join(r.RootsCreated, ", "))
	}
	if len(r.RootsExisting) > 0 {
		fmt.Fprintf(w, "  roots existing: %s\n", strings.Join(r.RootsExisting, ", "))
	}
	writeList(w, "children created", r.ChildrenCreated)
	fmt.Fprintln(w, "posts:")
	writeList(w, "created", r.PostsCreated)
	writeList(w, "updated", r.PostsUpdated)
	fmt.Fprintf(w, "  skipped (%d)\n", len(r.PostsSkipped))
	fmt.Fprintln(w, reportRule)
	fmt.Fprintf(w, "mode: %s\nsource: %s\n", mode(r.DryRun), r.Source)
}

// WriteText prints a human readable summary of r.
func (r *DownReport) WriteText(w io.Writer) {
	fmt.Fprintln(w, "[seed down]")
	fmt.Fprintln(w, reportRule)
	fmt.Fprintf(w, "posts deleted: %d\n", r.PostsDeleted)
	for _, p := range r.DeletedPosts {
		fmt.Fprintf(w, "    - %s\n", p)
	}
	fmt.Fprintf(w, "categories deleted: %d\n", r.CategoriesDeleted)
	for _, c := range r.DeletedCategories {
		fmt.Fprintf(w, "    - %s\n", c)
	}
	if len(r.EssentialKept) > 0 {
		fmt.Fprintf(w, "essential categories kept: %s\n", strings.Join(r.EssentialKept, ", "))
	}
	if r.Admin != "" {
		fmt.Fprintf(w, "admin: %s (deleted: %t)\n", r.Admin, r.AdminDeleted)
	}
	fmt.Fprintln(w, reportRule)
	fmt.Fprintf(w, "mode: %s\nsource: %s\n", mode(r.DryRun), r.Source)
}

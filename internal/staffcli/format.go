package staffcli

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func num(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

// formatPage renders a ListPending response.
func formatPage(p *structpb.Struct) string {
	var b strings.Builder
	items := p.GetFields()["items"].GetListValue().GetValues()
	if len(items) == 0 {
		return "No pending applications.\n"
	}
	fmt.Fprintf(&b, "Pending applications (page %d/%d, %d total)\n", num(p, "page")+1, num(p, "page_count"), num(p, "total"))
	for _, v := range items {
		it := v.GetStructValue()
		fmt.Fprintf(&b, "  %s  %-20s  %-20s  photos: %d\n", str(it, "id"), str(it, "display_name"), str(it, "game_id"), num(it, "photo_count"))
	}
	return b.String()
}

// formatApplication renders a GetApplication response or a decision's
// application.
func formatApplication(a *structpb.Struct) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application %s [%s]\n", str(a, "id"), str(a, "status"))
	fmt.Fprintf(&b, "  Applicant:  %s (%s)\n", str(a, "display_name"), str(a, "applicant_id"))
	fmt.Fprintf(&b, "  Game ID:    %s\n", str(a, "game_id"))
	fmt.Fprintf(&b, "  Submitted:  %s\n", str(a, "created_at"))
	if text := str(a, "application_text"); text != "" {
		fmt.Fprintf(&b, "  About:      %s\n", text)
	}
	fmt.Fprintf(&b, "  Photos:     %d\n", num(a, "photo_count"))
	for _, v := range a.GetFields()["photos"].GetListValue().GetValues() {
		fmt.Fprintf(&b, "    %s\n", v.GetStringValue())
	}
	if by := str(a, "reviewed_by"); by != "" {
		fmt.Fprintf(&b, "  Reviewed by %s at %s\n", by, str(a, "reviewed_at"))
	}
	if reason := str(a, "rejection_reason"); reason != "" {
		fmt.Fprintf(&b, "  Reason:     %s\n", reason)
	}
	return b.String()
}

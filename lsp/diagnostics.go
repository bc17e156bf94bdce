package lsp

import (
	"strconv"

	"go.lsp.dev/protocol"

	"github.com/beehive-innovation/rainlang"
)

// Diagnostics converts a document's accumulated problems into LSP
// diagnostics. With related information enabled, each diagnostic points
// back at its own span with the raw message, which some clients surface
// in the problem detail view.
func Diagnostics(rd *rainlang.RainDocument, related bool) []protocol.Diagnostic {
	problems := rd.AllProblems()
	diagnostics := make([]protocol.Diagnostic, 0, len(problems))
	for _, problem := range problems {
		diagnostics = append(diagnostics, convertProblem(rd, problem, related))
	}
	return diagnostics
}

func convertProblem(rd *rainlang.RainDocument, problem rainlang.Problem, related bool) protocol.Diagnostic {
	rng := protocol.Range{
		Start: rainlang.PositionAt(rd.Text(), problem.Position[0]),
		End:   rainlang.PositionAt(rd.Text(), problem.Position[1]),
	}
	d := protocol.Diagnostic{
		Range:    rng,
		Severity: protocol.DiagnosticSeverityError,
		Code:     strconv.Itoa(int(problem.Code)),
		Source:   "rainlang",
		Message:  problem.Msg,
	}
	if related {
		d.RelatedInformation = []protocol.DiagnosticRelatedInformation{{
			Location: protocol.Location{URI: protocol.DocumentURI(rd.URI()), Range: rng},
			Message:  problem.Msg,
		}}
	}
	return d
}

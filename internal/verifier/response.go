package verifier

import "github.com/danshapiro/actcore/internal/artifacts"

// Status is the outcome of a verification run.
type Status string

const (
	StatusPass        Status = "PASS"
	StatusFail        Status = "FAIL"
	StatusInfraError  Status = "INFRA_ERROR"
)

// Response is the unified result of a Verifier call. Field presence is
// status-dependent: PASS/FAIL populate RunID/TailLog/ArtifactPaths/Manifest;
// INFRA_ERROR populates ErrorType/ErrorMessage and whatever subset of the
// other fields were produced before the failure.
type Response struct {
	Status        Status
	RunID         string
	TailLog       string
	ArtifactPaths []string
	Manifest      *artifacts.Manifest
	ErrorType     InfraErrorType
	ErrorMessage  string
}

func newPassResponse(runID, tailLog string, artifactPaths []string, m *artifacts.Manifest) Response {
	return Response{Status: StatusPass, RunID: runID, TailLog: tailLog, ArtifactPaths: artifactPaths, Manifest: m}
}

func newFailResponse(runID, tailLog string, artifactPaths []string, m *artifacts.Manifest) Response {
	return Response{Status: StatusFail, RunID: runID, TailLog: tailLog, ArtifactPaths: artifactPaths, Manifest: m}
}

func newInfraErrorResponse(errType InfraErrorType, errMessage, runID, tailLog string, artifactPaths []string, m *artifacts.Manifest) Response {
	if artifactPaths == nil {
		artifactPaths = []string{}
	}
	return Response{
		Status:        StatusInfraError,
		RunID:         runID,
		TailLog:       tailLog,
		ArtifactPaths: artifactPaths,
		Manifest:      m,
		ErrorType:     errType,
		ErrorMessage:  errMessage,
	}
}

package git

// MockRevisionReader is a RevisionReader for tests.
type MockRevisionReader struct {
	Revision string
	Branch   string
	IsRepo   bool
}

// NewMockRevisionReader creates a mock with sensible defaults.
func NewMockRevisionReader() *MockRevisionReader {
	return &MockRevisionReader{
		Revision: "0123456789abcdef0123456789abcdef01234567",
		Branch:   "main",
		IsRepo:   true,
	}
}

func (m *MockRevisionReader) CurrentRevision(projectPath string) string {
	return m.Revision
}

func (m *MockRevisionReader) CurrentBranch(projectPath string) string {
	return m.Branch
}

func (m *MockRevisionReader) IsRepository(projectPath string) bool {
	return m.IsRepo
}

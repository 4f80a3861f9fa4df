package template

import (
	"bytes"
	"testing"

	"device-service/internal/emitter"
	"device-service/internal/model"
)

func TestTokenize(t *testing.T) {
	got := tokenize(`a,b\,c,d`)
	want := []string{"a", `b\,c`, "d"}
	if len(got) != len(want) {
		t.Fatalf("tokenize length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokenize[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecodeEscapedBinaryHex(t *testing.T) {
	got := decodeEscapedBinary([]byte(`\FF\00\n`))
	want := []byte{0xFF, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("decodeEscapedBinary(hex) = % X, want % X", got, want)
	}
}

func TestDecodeEscapedBinaryRawPassthrough(t *testing.T) {
	got := decodeEscapedBinary([]byte("rawbytes"))
	if !bytes.Equal(got, []byte("rawbytes")) {
		t.Errorf("decodeEscapedBinary(raw) = %q, want %q", got, "rawbytes")
	}
}

func TestRunGeometryAndRawBytes(t *testing.T) {
	blob := []byte("~S100,50\n~c65,66,67\n")
	job := model.NewJobState()
	var buf bytes.Buffer
	if err := Run(blob, job, nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Geometry.WidthMM != 100 || job.Geometry.HeightMM != 50 {
		t.Errorf("job.Geometry = %+v, want {100 50 0 0}", job.Geometry)
	}
	if !bytes.Equal(buf.Bytes(), []byte("ABC")) {
		t.Errorf("Run raw bytes output = % X, want %q", buf.Bytes(), "ABC")
	}
}

func TestRunIgnoresNonDirectiveLines(t *testing.T) {
	blob := []byte("not a directive\n\n~c65\n")
	job := model.NewJobState()
	var buf bytes.Buffer
	if err := Run(blob, job, nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("A")) {
		t.Errorf("Run = % X, want %q", buf.Bytes(), "A")
	}
}

func TestRunTextDirectiveFieldCountGate(t *testing.T) {
	blob := []byte("~T1,2,3\n")
	job := model.NewJobState()
	var buf bytes.Buffer
	if err := Run(blob, job, nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Run(~T with <13 fields) wrote %d bytes, want 0 (gated)", buf.Len())
	}
}

func TestParseVariableSpecBasic(t *testing.T) {
	spec, ok := parseVariableSpec(" 5,5,0,1,2,2,72,,0,0,L,1,3,W", model.Geometry{})
	if !ok {
		t.Fatal("parseVariableSpec() ok = false, want true")
	}
	if spec.X != 5 || spec.Y != 5 || spec.Font != 1 || spec.XMul != 2 || spec.YMul != 2 {
		t.Errorf("parseVariableSpec() positional fields = %+v, want x=5 y=5 font=1 xmul=2 ymul=2", spec)
	}
	if spec.ID != "72" || spec.Literal != "" {
		t.Errorf("parseVariableSpec() ID/Literal = %q/%q, want 72/\"\"", spec.ID, spec.Literal)
	}
	if !spec.Resolvable {
		t.Error("parseVariableSpec() Resolvable = false, want true")
	}
	if spec.Justify != emitter.JustifyLeft || spec.Lines != 1 || spec.LineSpacingMM != 3 {
		t.Errorf("parseVariableSpec() trailing fields = %+v, want justify=L lines=1 spacing=3", spec)
	}
	if spec.PrintStatus != '1' {
		t.Errorf("parseVariableSpec() PrintStatus = %q, want default '1'", spec.PrintStatus)
	}
}

func TestParseVariableSpecPreservesEmbeddedComma(t *testing.T) {
	spec, ok := parseVariableSpec(" 1,1,0,1,1,1,my_key,Hello, World,0,0,L,1,3,N", model.Geometry{})
	if !ok {
		t.Fatal("parseVariableSpec() ok = false, want true")
	}
	if spec.ID != "my_key" {
		t.Errorf("parseVariableSpec() ID = %q, want my_key", spec.ID)
	}
	if spec.Literal != "Hello, World" {
		t.Errorf("parseVariableSpec() Literal = %q, want %q (embedded comma preserved)", spec.Literal, "Hello, World")
	}
}

func TestRunTextDirectiveNeverResolvesLiteral(t *testing.T) {
	blob := []byte("~T5,5,0,1,1,1,1,0,0,L,1,3,1\n")
	job := model.NewJobState()
	job.UOM = model.UOMPieces
	job.Datapoints[1] = "42"
	var buf bytes.Buffer
	if err := Run(blob, job, nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("0042")) {
		t.Errorf("Run(~T) resolved its literal via the variable resolver, output = % X", buf.Bytes())
	}
}

func TestRunVariableDirectiveResolvesByID(t *testing.T) {
	blob := []byte("~V5,5,0,1,1,1,1,,0,0,L,1,3,W\n")
	job := model.NewJobState()
	job.UOM = model.UOMPieces
	job.Datapoints[1] = "42"
	var buf bytes.Buffer
	if err := Run(blob, job, nil, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("0042")) {
		t.Errorf("Run(~V) did not resolve its id, output = % X, want containing %q", buf.Bytes(), "0042")
	}
}

func TestPrintAndAdvanceBytes(t *testing.T) {
	got := printAndAdvanceBytes(2, 'U')
	want := []byte{0x1B, '{', 'U', 0x1D, 0x0C, 0x1D, 0x0C, 0x1B, 'S'}
	if !bytes.Equal(got, want) {
		t.Errorf("printAndAdvanceBytes(2,'U') = % X, want % X", got, want)
	}
}

func TestClampMS(t *testing.T) {
	if got := clampMS([]string{"1"}); got != 5 {
		t.Errorf("clampMS(1) = %d, want 5", got)
	}
	if got := clampMS([]string{"9000"}); got != 5000 {
		t.Errorf("clampMS(9000) = %d, want 5000", got)
	}
	if got := clampMS([]string{"100"}); got != 100 {
		t.Errorf("clampMS(100) = %d, want 100", got)
	}
}

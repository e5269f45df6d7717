package idgen_test

import (
	"fmt"
	"strings"

	"github.com/jimyag/vdisnap/pkg/idgen"
)

func ExampleGenerator_GenerateSnapshotJobID() {
	gen, err := idgen.New()
	if err != nil {
		panic(err)
	}

	jobID, err := gen.GenerateSnapshotJobID()
	if err != nil {
		panic(err)
	}

	fmt.Println(strings.HasPrefix(jobID, "snap-"))
	// Output: true
}

func ExampleGenerateRequestID() {
	requestID, err := idgen.GenerateRequestID()
	if err != nil {
		panic(err)
	}

	fmt.Println(strings.HasPrefix(requestID, "req-"))
	// Output: true
}

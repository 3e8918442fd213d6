package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("loadtest command", func() {
	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"loadtest"}, args...))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	It("should print a summary and write the reports", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		dir := GinkgoT().TempDir()
		jsonPath := filepath.Join(dir, "summary.json")
		csvPath := filepath.Join(dir, "results.csv")

		out, err := execute("--url", server.URL+"/health", "--requests", "8", "--concurrency", "2",
			"--out", jsonPath, "--csv", csvPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Total sent: 8  Success: 8  Failure: 0"))

		data, err := os.ReadFile(jsonPath)
		Expect(err).NotTo(HaveOccurred())
		var summary map[string]any
		Expect(json.Unmarshal(data, &summary)).To(Succeed())
		Expect(summary).To(HaveKeyWithValue("total_sent", BeNumerically("==", 8)))

		Expect(csvPath).To(BeAnExistingFile())
	})

	It("should fail when requests fail", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"Service A unavailable","details":"Connection error: refused"}`))
		}))
		defer server.Close()

		out, err := execute("--url", server.URL+"/call-echo?msg=x", "--requests", "3")
		Expect(err).To(MatchError("3 of 3 requests failed"))
		Expect(out).To(ContainSubstring("Connection error -> 3"))
	})
})

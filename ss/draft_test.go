// Concurrency behavior of the sentence lock manager and ETIRW commit path:
// lock exclusivity, draft isolation pre-commit, and rollback on Unlock
// without Commit.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ss_test

import (
	"os"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/wordstore/wordstore/cmn/config"
	"github.com/wordstore/wordstore/ss"
)

var _ = Describe("sentence lock manager", func() {
	var (
		st  *ss.Store
		dir string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "wordstore-ss-*")
		Expect(err).NotTo(HaveOccurred())

		cfg := config.DefaultSS()
		cfg.StorageDir = dir
		st = ss.NewStore(cfg)
		Expect(st.Create("doc")).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("rejects a second WRITE_LOCK on the same sentence from another client", func() {
		sess, err := st.Lock("doc", 0, "client-a")
		Expect(err).NotTo(HaveOccurred())
		defer sess.Unlock()

		_, err = st.Lock("doc", 0, "client-b")
		Expect(err).To(HaveOccurred())
	})

	It("allows the same client to re-lock the sentence it already holds", func() {
		sess, err := st.Lock("doc", 0, "client-a")
		Expect(err).NotTo(HaveOccurred())
		defer sess.Unlock()

		again, err := st.Lock("doc", 0, "client-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(again).NotTo(BeNil())
	})

	It("discards the draft and releases the lock on Unlock without Commit", func() {
		sess, err := st.Lock("doc", 0, "client-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.Edit(0, "hello")).To(Succeed())
		Expect(sess.Uncommitted()).To(BeTrue())

		sess.Unlock()

		reread, err := st.Lock("doc", 0, "client-b")
		Expect(err).NotTo(HaveOccurred())
		defer reread.Unlock()

		content, err := st.Read("doc", "client-b")
		Expect(err).NotTo(HaveOccurred())
		Expect(content).NotTo(ContainSubstring("hello"))
	})

	It("applies an edit only after Commit", func() {
		sess, err := st.Lock("doc", 0, "client-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.Edit(0, "hello")).To(Succeed())
		Expect(sess.Commit()).To(Succeed())
		sess.Unlock()

		content, err := st.Read("doc", "client-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(ContainSubstring("hello"))
	})

	It("serializes concurrent lock attempts on the same sentence without data races", func() {
		const n = 20
		var wg sync.WaitGroup
		succeeded := make([]bool, n)
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				sess, err := st.Lock("doc", 0, "racer")
				if err == nil {
					succeeded[i] = true
					sess.Unlock()
				}
			}(i)
		}
		wg.Wait()

		count := 0
		for _, ok := range succeeded {
			if ok {
				count++
			}
		}
		// Every attempt succeeds in turn since they share the same client id
		// (re-entrant for the holder) and each releases before returning.
		Expect(count).To(Equal(n))
	})
})

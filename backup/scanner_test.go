package backup

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/coreshard/kvbackup/core/meta"
)

var _ = Describe("runShard", func() {
	It("produces one consistent file descriptor per column family touched", func() {
		eng := newFakeEngine(64)
		eng.Put("01", 3, []byte("v1"))
		eng.Put("02", 4, []byte("v2"))

		reg := region(7, "", "5", meta.RoleLeader, testStoreID)
		br := &BackupRange{
			Region:       reg,
			LeaderPeer:   reg.Peers[0],
			ClippedStart: reg.StartBound(),
			ClippedEnd:   reg.EndBound(),
		}

		dst := newFakeSink()
		cfg := scanConfig{scanBatchSize: 4, shortValueMaxLen: 64}
		res := runShard(context.Background(), eng, dst, testStoreID, cfg, br, 10)

		Expect(res.err).NotTo(HaveOccurred())
		Expect(res.files).To(HaveLen(1))
		fd := res.files[0]
		Expect(res.stats.KeysScanned).To(Equal(int64(2)))
		Expect(fd.SHA256).NotTo(BeEmpty())
		Expect(fd.Size).NotTo(BeZero())
		// every file's version pair is the request's own
		// backup_ts, not the entries' individual commit timestamps.
		Expect(fd.StartVersion).To(Equal(uint64(10)))
		Expect(fd.EndVersion).To(Equal(uint64(10)))
		Expect(fd.StartKeyRaw).To(Equal(br.StartKeyRaw()))
		Expect(fd.EndKeyRaw).To(Equal(br.EndKeyRaw()))
	})

	It("produces the same checksum across repeated runs over identical input", func() {
		mkEngine := func() *fakeEngine {
			e := newFakeEngine(64)
			e.Put("01", 3, []byte("stable value"))
			return e
		}
		reg := region(7, "", "5", meta.RoleLeader, testStoreID)
		br := &BackupRange{
			Region:       reg,
			LeaderPeer:   reg.Peers[0],
			ClippedStart: reg.StartBound(),
			ClippedEnd:   reg.EndBound(),
		}
		cfg := scanConfig{scanBatchSize: 4, shortValueMaxLen: 64}

		res1 := runShard(context.Background(), mkEngine(), newFakeSink(), testStoreID, cfg, br, 10)
		res2 := runShard(context.Background(), mkEngine(), newFakeSink(), testStoreID, cfg, br, 10)

		Expect(res1.files).To(HaveLen(1))
		Expect(res2.files).To(HaveLen(1))
		Expect(res1.files[0].SHA256).To(Equal(res2.files[0].SHA256))
	})
})

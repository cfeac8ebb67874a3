package backup

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/coreshard/kvbackup/cmn/cos"
	"github.com/coreshard/kvbackup/core"
	"github.com/coreshard/kvbackup/core/meta"
)

const testStoreID = uint64(1)

// standardRegistry is the partition map the range-intersection cases
// below are built against: [(-inf,"1"), ("1","2"), ("3","4"), ("7","9"),
// ("9",+inf)], every region led on this store.
func standardRegistry() *fakeRegistry {
	return newFakeRegistry(
		region(1, "", "1", meta.RoleLeader, testStoreID),
		region(2, "1", "2", meta.RoleLeader, testStoreID),
		region(3, "3", "4", meta.RoleLeader, testStoreID),
		region(4, "7", "9", meta.RoleLeader, testStoreID),
		region(5, "9", "", meta.RoleLeader, testStoreID),
	)
}

func boundOf(raw string, unbounded cos.BoundKind) cos.Bound {
	if raw == "" {
		return cos.NewBound(nil, unbounded)
	}
	return cos.NewBound(core.EncodeKey([]byte(raw)), unbounded)
}

// rawRange is a raw-key expectation (start, end) for one emitted shard,
// decoded back out of the BackupRange under test.
type rawRange struct {
	start, end string
}

func walkRaw(reg *fakeRegistry, startRaw, endRaw string) []rawRange {
	start := boundOf(startRaw, cos.MinusInf)
	end := boundOf(endRaw, cos.PlusInf)
	ranges := walkRanges(reg, testStoreID, start, end)

	got := make([]rawRange, len(ranges))
	for i, br := range ranges {
		got[i] = rawRange{start: string(br.StartKeyRaw()), end: string(br.EndKeyRaw())}
	}
	return got
}

var _ = Describe("walkRanges", func() {
	var reg *fakeRegistry

	BeforeEach(func() {
		reg = standardRegistry()
	})

	DescribeTable("range-intersection scenarios",
		func(start, end string, want []rawRange) {
			Expect(walkRaw(reg, start, end)).To(Equal(want))
		},
		Entry("request clipped to the first region", "", "1", []rawRange{{"", "1"}}),
		Entry("request spanning two leading regions", "", "2", []rawRange{{"", "1"}, {"1", "2"}}),
		Entry("request clipped inside the second region", "1", "3", []rawRange{{"1", "2"}}),
		Entry("request entirely inside the un-owned gap", "4", "6", []rawRange{}),
		Entry("request spanning the gap into the next region", "2", "7", []rawRange{{"3", "4"}}),
		Entry("open-ended request from the middle", "3", "", []rawRange{{"3", "4"}, {"7", "9"}, {"9", ""}}),
		Entry("request straddling a region boundary", "8", "91", []rawRange{{"8", "9"}, {"9", "91"}}),
		Entry("fully open request enumerates every region", "", "", []rawRange{{"", "1"}, {"1", "2"}, {"3", "4"}, {"7", "9"}, {"9", ""}}),
	)

	It("skips regions this store does not lead", func() {
		reg := newFakeRegistry(
			region(1, "", "1", meta.RoleLeader, testStoreID),
			region(2, "1", "2", meta.RoleFollower, testStoreID),
			region(3, "2", "3", meta.RoleLeader, testStoreID),
		)
		Expect(walkRaw(reg, "", "")).To(Equal([]rawRange{{"", "1"}, {"2", "3"}}))
	})

	It("clips a request entirely inside one unbounded region to the request's own bounds", func() {
		reg := newFakeRegistry(region(1, "", "", meta.RoleLeader, testStoreID))
		Expect(walkRaw(reg, "a", "z")).To(Equal([]rawRange{{"a", "z"}}))
	})

	It("yields no shards when the registry has no regions at all", func() {
		reg := newFakeRegistry()
		Expect(walkRaw(reg, "", "")).To(BeEmpty())
	})
})

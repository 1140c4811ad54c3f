package analyTool

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

// FindStep 計算找到指定 key 的總步數和各層步數
func FindStep(sl skiplist.Analyable, key skiplist.K) (step int, level []int) {
	_, maxLevel := sl.GetMaxStats()
	cur := sl.GetHead()
	if cur == nil || maxLevel < 0 {
		return 0, []int{}
	}

	totalSteps := 0
	stepsPerLevel := make([]int, maxLevel+1)

	// 從最高層開始搜尋
	for h := maxLevel; h >= 0; h-- {
		levelSteps := 0

		// 在當前層級水平移動
		for {
			nextNode := cur.GetNextAt(int32(h))
			if nextNode == nil || nextNode.GetKey() >= key {
				break
			}
			cur = nextNode
			levelSteps++
		}

		// 找到目標 key 就停止
		if nextNode := cur.GetNextAt(int32(h)); nextNode != nil && nextNode.GetKey() == key {
			levelSteps++
			stepsPerLevel[h] = levelSteps
			return totalSteps + levelSteps, stepsPerLevel
		}

		stepsPerLevel[h] = levelSteps
		totalSteps += levelSteps + 1 // 加上向下移動
	}

	return totalSteps, stepsPerLevel
}

// AnalyzeStep 根據 weights 提供的 key 出現機率計算平均搜尋步數，
// 不在表中的 key 不列入計算
func AnalyzeStep(sl skiplist.Analyable, weights map[skiplist.K]float64) float64 {
	var totalExpectedSteps float64
	var totalProbability float64
	for key, p := range weights {
		if p <= 0 || !sl.Contains(key) {
			continue
		}
		steps, _ := FindStep(sl, key)
		totalExpectedSteps += float64(steps) * p
		totalProbability += p
	}
	if totalProbability == 0 {
		return 0
	}
	return totalExpectedSteps / totalProbability
}

// CountLevel 回傳每層的節點數量，counts[l] 為高度超過 l 的塔數
func CountLevel(sl skiplist.Analyable) []int {
	_, maxLevel := sl.GetMaxStats()
	if maxLevel < 0 {
		return []int{}
	}
	levelCounts := make([]int, maxLevel+1)

	for cur := sl.GetHead().GetNextAt(0); cur != nil; cur = cur.GetNextAt(0) {
		for i := int32(0); i <= cur.GetLevel() && int(i) < len(levelCounts); i++ {
			levelCounts[i]++
		}
	}
	return levelCounts
}

// HeightHistogram returns the fraction of keys whose tower height is h at index h-1.
func HeightHistogram(sl skiplist.Analyable) []float64 {
	counts := CountLevel(sl)
	hist := make([]float64, len(counts))
	if len(counts) == 0 || counts[0] == 0 {
		return hist
	}
	for i := range counts {
		above := 0
		if i+1 < len(counts) {
			above = counts[i+1]
		}
		hist[i] = float64(counts[i]-above) / float64(counts[0])
	}
	return hist
}

// CheckStruct 檢查結構是否正確：每層 key 嚴格遞增、節點高度足夠，
// 且出現在第 l 層的 key 也必須出現在第 l-1 層
func CheckStruct(sl skiplist.Analyable) error {
	size, maxLevel := sl.GetMaxStats()
	if maxLevel < 0 {
		if size != 0 {
			return errors.Errorf("no levels but size is %d", size)
		}
		return nil
	}
	head := sl.GetHead()

	var below map[skiplist.K]bool
	for l := 0; l <= maxLevel; l++ {
		seen := make(map[skiplist.K]bool)
		var prev skiplist.Nodelike
		for node := head.GetNextAt(int32(l)); node != nil; node = node.GetNextAt(int32(l)) {
			if node.GetLevel() < int32(l) {
				return errors.Errorf("key %q with level %d linked at level %d", node.GetKey(), node.GetLevel(), l)
			}
			if prev != nil && prev.GetKey() >= node.GetKey() {
				return errors.Errorf("level %d out of order: %q before %q", l, prev.GetKey(), node.GetKey())
			}
			if below != nil && !below[node.GetKey()] {
				return errors.Errorf("key %q at level %d missing from level %d", node.GetKey(), l, l-1)
			}
			seen[node.GetKey()] = true
			prev = node
		}
		if l == 0 && len(seen) != size {
			return errors.Errorf("level 0 holds %d keys, size is %d", len(seen), size)
		}
		below = seen
	}
	return nil
}

// PrintSkipList 以表格輸出各層結構，最多 maxLevel+1 層、maxNodes 個 key
func PrintSkipList(w io.Writer, sl skiplist.Analyable, maxLevel, maxNodes int) {
	_, actualMaxLevel := sl.GetMaxStats()
	maxLevel = min(maxLevel, actualMaxLevel)
	if maxLevel < 0 {
		fmt.Fprintln(w, "skip list is empty")
		return
	}

	var nodes []skiplist.Nodelike
	for node := sl.GetHead().GetNextAt(0); node != nil && len(nodes) < maxNodes; node = node.GetNextAt(0) {
		nodes = append(nodes, node)
	}

	header := make([]string, 0, len(nodes)+1)
	header = append(header, "level")
	for _, node := range nodes {
		header = append(header, node.GetKey())
	}

	rows := make([][]string, 0, maxLevel+1)
	for l := maxLevel; l >= 0; l-- {
		row := make([]string, 0, len(nodes)+1)
		row = append(row, fmt.Sprintf("%d", l))
		for _, node := range nodes {
			if node.GetLevel() >= int32(l) {
				row = append(row, "*")
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

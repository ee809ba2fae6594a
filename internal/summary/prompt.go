package summary

import (
	"fmt"
	"strings"

	"github.com/KinGao294/oasis/internal/models"
)

const (
	// Transcript text is truncated to bound the prompt size.
	maxTranscriptChars = 15000

	// At most this many timestamp anchors are sampled across the
	// transcript to ground the summary in its chronology.
	maxAnchorPoints = 10

	anchorSnippetChars = 50
)

const promptTemplate = `请分析以下视频内容，生成一个带时间轴的内容摘要。

视频标题: %s

字幕内容:
%s

时间参考点:
%s

请按以下JSON格式返回（只返回JSON，不要其他内容）:
{
  "summary": "整体内容摘要，200-300字，5-6句话，全面概括视频主题",
  "key_points": [
    {
      "timestamp": 0,
      "title": "要点标题",
      "content": "这里需要写150-200字的详细内容。必须包含5-6句话。第一句概括要点。第二三句展开具体内容。第四五句补充案例、数据或深入分析。第六句总结意义。"
    }
  ],
  "tags": ["标签1", "标签2", "标签3"]
}

【重要要求】：
1. 提取5-8个关键要点，覆盖视频主要内容
2. 时间戳根据内容位置估算
3. summary必须200字以上，5-6句话
4. 【最重要】每个key_point的content必须写150-200字、5-6句完整的话！不能只写一两句！要详细展开讲解该时间段的核心观点、论据、案例和意义
5. tags提取3-5个主题标签
6. 全部使用中文`

// buildPrompt assembles the generation prompt from a transcript: the full
// text (truncated to the character budget) plus evenly sampled timestamp
// anchors.
func buildPrompt(title string, transcript *models.Transcript) string {
	fullText := transcript.FullText
	if runes := []rune(fullText); len(runes) > maxTranscriptChars {
		fullText = string(runes[:maxTranscriptChars]) + "..."
	}

	return fmt.Sprintf(promptTemplate, title, fullText, anchorPoints(transcript.Segments))
}

// anchorPoints samples segments evenly across the transcript and renders
// them as "[M:SS] snippet..." lines.
func anchorPoints(segments []models.TranscriptSegment) string {
	if len(segments) == 0 {
		return ""
	}

	step := len(segments) / maxAnchorPoints
	if step < 1 {
		step = 1
	}

	var lines []string
	for i := 0; i < len(segments) && len(lines) < maxAnchorPoints; i += step {
		seg := segments[i]
		snippet := seg.Text
		if runes := []rune(snippet); len(runes) > anchorSnippetChars {
			snippet = string(runes[:anchorSnippetChars])
		}
		lines = append(lines, fmt.Sprintf("[%s] %s...", formatTimestamp(seg.Start), snippet))
	}
	return strings.Join(lines, "\n")
}

// formatTimestamp renders seconds as M:SS.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

package domain

// Task is a single unit of work inside a time block. It has no identity
// beyond its position in the block.
type Task struct {
	Task          string `json:"task"`
	Essential     bool   `json:"essential"`
	EstimatedTime string `json:"estimatedTime"`
	Completed     bool   `json:"completed"`
}

// TimeBlock groups tasks under a chronological label such as "Saturday Morning".
type TimeBlock struct {
	TimeBlock string `json:"timeBlock"`
	Tasks     []Task `json:"tasks"`
}

// ProjectPlan is the structured plan the model is asked to produce.
type ProjectPlan struct {
	ProjectOverview string      `json:"projectOverview"`
	TechStack       []string    `json:"techStack"`
	Timeline        []TimeBlock `json:"timeline"`
	Tips            []string    `json:"tips"`
}

// Clone returns a deep copy of the plan. A nil plan clones to nil.
func (p *ProjectPlan) Clone() *ProjectPlan {
	if p == nil {
		return nil
	}

	out := &ProjectPlan{
		ProjectOverview: p.ProjectOverview,
		TechStack:       append([]string(nil), p.TechStack...),
		Tips:            append([]string(nil), p.Tips...),
	}
	if p.Timeline != nil {
		out.Timeline = make([]TimeBlock, len(p.Timeline))
		for i, b := range p.Timeline {
			out.Timeline[i] = TimeBlock{
				TimeBlock: b.TimeBlock,
				Tasks:     append([]Task(nil), b.Tasks...),
			}
		}
	}
	return out
}

// SetTaskCompleted flips the completion flag of a task addressed by
// zero-based block and task index. It reports false when either index is
// out of range; indices are never clamped.
func (p *ProjectPlan) SetTaskCompleted(blockIdx, taskIdx int, completed bool) bool {
	if p == nil {
		return false
	}
	if blockIdx < 0 || blockIdx >= len(p.Timeline) {
		return false
	}
	tasks := p.Timeline[blockIdx].Tasks
	if taskIdx < 0 || taskIdx >= len(tasks) {
		return false
	}
	tasks[taskIdx].Completed = completed
	return true
}

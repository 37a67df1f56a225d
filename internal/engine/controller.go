package engine

// FieldController is the per-element engine surface.
//
// Controllers for elements that are not Fields (fieldsets, buttons) accept
// every call and do nothing.
type FieldController struct {
	engine *Engine
	field  Field
}

// Field returns the controller for el.
func (e *Engine) Field(el Element) *FieldController {
	f, _ := el.(Field)
	return &FieldController{engine: e, field: f}
}

// AddRule registers r on the field.
func (c *FieldController) AddRule(r *Rule) {
	if c.field == nil {
		return
	}
	c.engine.register(c.field, r)
}

// RemoveRule unregisters the first occurrence of r.
func (c *FieldController) RemoveRule(r *Rule) {
	if c.field == nil {
		return
	}
	c.engine.unregister(c.field, r)
}

// RequestRevalidation re-evaluates the field synchronously.
func (c *FieldController) RequestRevalidation() {
	if c.field == nil {
		return
	}
	c.engine.runAll(c.field)
}

// MarkDirty schedules a deferred re-evaluation.
func (c *FieldController) MarkDirty() {
	if c.field == nil {
		return
	}
	c.engine.markDirty(c.field)
}

// ContainerController fans revalidation out over a container's members.
type ContainerController struct {
	engine    *Engine
	container Container
}

// Container returns the controller for c.
func (e *Engine) Container(c Container) *ContainerController {
	return &ContainerController{engine: e, container: c}
}

// RequestRevalidation re-evaluates every eligible member in enumeration order.
func (c *ContainerController) RequestRevalidation() {
	if c.container == nil {
		return
	}
	for _, m := range c.container.Members() {
		if f, ok := Eligible(m); ok {
			c.engine.runAll(f)
		}
	}
}

package instancer

import (
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief Produces the vertices of count instances starting at the global
 * instance firstInstance. Slot i holds prototype vertex i%V of instance
 * firstInstance+i/V, with the position transformed as a point and the normal
 * as a direction, renormalized.
 *
 * Matrices are sampled once per instance, then every slot is filled
 * independently through exec.
 */
func TransformVertices(exec Executor, proto *metadata.PrototypeMesh, sampler *Sampler, firstInstance uint32, count, batchSize int) ([]metadata.VertexPN, error) {
	if count <= 0 {
		return []metadata.VertexPN{}, nil
	}
	if exec == nil {
		exec = SerialExecutor{}
	}

	matrices := make([]math.Mat4, count)
	err := exec.ParallelFor(count, batchSize, func(instance int) {
		matrices[instance] = sampler.Sample(firstInstance + uint32(instance)).Matrix()
	})
	if err != nil {
		return nil, err
	}

	vertexCount := proto.VertexCount()
	out := make([]metadata.VertexPN, count*vertexCount)
	err = exec.ParallelFor(len(out), batchSize, func(index int) {
		m := &matrices[index/vertexCount]
		local := index % vertexCount
		out[index].Position = proto.Positions[local].Transform(*m)
		out[index].Normal = proto.Normals[local].TransformDirection(*m).Normalized()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
